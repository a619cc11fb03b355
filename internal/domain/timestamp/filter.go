package timestamp

import "time"

const dateLayout = "2006-1-2"

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithClock sets the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		if now != nil {
			f.now = now
		}
	}
}

// Filter is the date validity rule shared by every dated statistic. A stamp is valid
// when its year equals the operating year, its date is a real calendar date, and that
// date is not after today.
type Filter struct {
	year int
	now  func() time.Time
}

// NewFilter creates a filter for the given operating year.
func NewFilter(year int, opts ...Option) *Filter {
	f := &Filter{
		year: year,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Year returns the operating year.
func (f *Filter) Year() int {
	return f.year
}

// Valid reports whether s is in scope.
func (f *Filter) Valid(s Stamp) bool {
	if s.Year != f.year {
		return false
	}
	d, err := time.Parse(dateLayout, s.Date)
	if err != nil {
		return false
	}
	n := f.now()
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return !d.After(today)
}

// ValidKey parses a timestamp key and reports whether it is in scope. Unparseable keys
// are not.
func (f *Filter) ValidKey(key string) bool {
	s, ok := Parse(key)
	return ok && f.Valid(s)
}

// ValidResultID reports whether the timestamp prefix of a result id is in scope.
func (f *Filter) ValidResultID(id string) bool {
	s, ok := ParseResultID(id)
	return ok && f.Valid(s)
}
