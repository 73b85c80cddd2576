package prioritize

import "errors"

// Sentinel kinds for prioritization errors.
var (
	ErrUnknownSubmission = errors.New("unknown submission")
	ErrUnknownHeuristic  = errors.New("unknown heuristic")
)
