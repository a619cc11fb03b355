package service

import (
	"time"

	"github.com/okian/playdash/internal/adapters/analytics"
	"github.com/okian/playdash/internal/adapters/sink"
	"github.com/okian/playdash/internal/adapters/source"
	"github.com/okian/playdash/internal/domain/dashboard"
	"github.com/okian/playdash/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where snapshots are loaded from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithAnalytics sets the optional analytics summary provider.
func WithAnalytics(p analytics.Provider) Option {
	return func(s *Service) {
		s.analytics = p
	}
}

// WithAssembler replaces the default dashboard assembler.
func WithAssembler(a *dashboard.Assembler) Option {
	return func(s *Service) {
		if a != nil {
			s.assembler = a
		}
	}
}

// WithSinks sets where documents are written.
func WithSinks(sinks ...sink.Sink) Option {
	return func(s *Service) {
		s.sinks = sinks
	}
}

// WithInterval schedules a run every d once the service starts. Zero disables
// scheduling.
func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithTracer sets the tracer for pipeline spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock sets the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
