package recency

import "errors"

// Sentinel kinds for recency errors.
var (
	// ErrInvalidArgument covers an out-of-range target and a defect that is
	// not flagged at the target.
	ErrInvalidArgument = errors.New("invalid argument")
)
