package tracing

import "errors"

// ErrInvalidConfig is returned for unusable tracing settings.
var ErrInvalidConfig = errors.New("invalid tracing config")
