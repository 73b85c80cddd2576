package repository

import "errors"

// Sentinel kinds for report lookups.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLimit = errors.New("invalid limit")
)
