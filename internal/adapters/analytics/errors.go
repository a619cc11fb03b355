package analytics

import "errors"

// ErrDecode is returned when the summary file is not a valid summary.
var ErrDecode = errors.New("analytics summary decode failed")
