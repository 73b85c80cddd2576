package csvio

import "errors"

// Sentinel errors returned by readers and writers.
var (
	ErrMalformedRow = errors.New("malformed row")
	ErrBadHeader    = errors.New("unexpected header")
	ErrNilReader    = errors.New("nil reader")
	ErrNilWriter    = errors.New("nil writer")
)
