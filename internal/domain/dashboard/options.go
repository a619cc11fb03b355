package dashboard

import "time"

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithOperatingYear sets the only calendar year the date filter accepts.
func WithOperatingYear(year int) Option {
	return func(a *Assembler) {
		a.year = year
	}
}

// WithRecentPlaysLimit caps the recent plays list.
func WithRecentPlaysLimit(limit int) Option {
	return func(a *Assembler) {
		a.recentLimit = limit
	}
}

// WithCostumeTopN caps the costume distribution.
func WithCostumeTopN(n int) Option {
	return func(a *Assembler) {
		a.costumeTopN = n
	}
}

// WithClock sets the clock used for the generation stamp and for "today" in the
// date filter.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}
