package synth

import "errors"

// ErrInvalidConfig is returned for generator settings that cannot produce a log.
var ErrInvalidConfig = errors.New("invalid generator config")
