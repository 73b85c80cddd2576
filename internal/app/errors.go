package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotLoaded   = errors.New("no dataset loaded")
	ErrNotComputed = errors.New("report not computed")
)
