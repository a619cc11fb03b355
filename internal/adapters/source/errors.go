package source

import "errors"

// Sentinel errors returned by snapshot sources.
var (
	ErrNotFound = errors.New("snapshot not found")
	ErrDecode   = errors.New("snapshot decode failed")
	ErrUpstream = errors.New("snapshot upstream failed")
)
