package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrNotReady         = errors.New("dashboard not generated yet")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
