package sink

import "errors"

// Sentinel errors returned by sinks.
var (
	ErrWrite       = errors.New("sink write failed")
	ErrUnknownKind = errors.New("unknown sink kind")
)
