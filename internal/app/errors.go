package service

import "errors"

// Sentinel errors returned by the pipeline service.
var (
	ErrNoSource   = errors.New("no snapshot source configured")
	ErrLoad       = errors.New("pipeline load failed")
	ErrPersist    = errors.New("pipeline persist failed")
	ErrNoDocument = errors.New("no dashboard document yet")
)
