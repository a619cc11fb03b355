// Package timestamp parses the dash-separated timestamp keys used by the game backend
// (YYYY-MM-DD-HH-MM-SS-mmm) and decides which of them are in scope for aggregation.
package timestamp

import (
	"strconv"
	"strings"
)

const (
	separator       = "-"
	resultSeparator = "_"
	yearDigits      = 4
	dateTokens      = 3
)

// Stamp is the date-bearing part of a timestamp key or result id.
type Stamp struct {
	// Key is the full timestamp key. Keys are zero-padded and fixed-width, so
	// comparing them as strings orders them in time.
	Key string
	// Year is the leading 4-digit year.
	Year int
	// Date is the first three tokens as written, e.g. "2025-01-31".
	Date string
}

// Parse extracts the year and calendar date from a timestamp key. It reports false
// when the key has fewer than three tokens or the year is not four digits.
func Parse(key string) (Stamp, bool) {
	parts := strings.SplitN(key, separator, dateTokens+1)
	if len(parts) < dateTokens {
		return Stamp{}, false
	}
	if len(parts[0]) != yearDigits {
		return Stamp{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 0 {
		return Stamp{}, false
	}
	return Stamp{
		Key:  key,
		Year: year,
		Date: strings.Join(parts[:dateTokens], separator),
	}, true
}

// ResultPrefix returns the timestamp part of a result id (everything before the first
// underscore). An id without an underscore is returned whole.
func ResultPrefix(id string) string {
	prefix, _, _ := strings.Cut(id, resultSeparator)
	return prefix
}

// ParseResultID parses the timestamp prefix of a result id.
func ParseResultID(id string) (Stamp, bool) {
	return Parse(ResultPrefix(id))
}
