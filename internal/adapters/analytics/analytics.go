// Package analytics loads the optional page-view summary merged into the dashboard.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/pkg/logger"
)

// Provider returns the analytics summary, or nil when none is available.
type Provider interface {
	Load(ctx context.Context) (*model.AnalyticsSummary, error)
}

// File reads a summary written by the analytics collector. Fields other than the
// merged ones are ignored.
type File struct {
	path string
	log  logger.Logger
}

// Option applies a configuration option to File.
type Option func(*File)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFile creates a provider for path. An empty path disables analytics.
func NewFile(path string, opts ...Option) *File {
	f := &File{path: path, log: logger.Get().Named("analytics")}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load reads the summary. A missing file, or an empty path, returns nil, nil.
func (f *File) Load(ctx context.Context) (*model.AnalyticsSummary, error) {
	if f.path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.log.Info(ctx, "no analytics summary", logger.String("path", f.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var s model.AnalyticsSummary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, f.path, err)
	}
	f.log.Debug(ctx, "analytics summary loaded",
		logger.String("path", f.path),
		logger.Int("daily_metrics", len(s.DailyMetrics)),
	)
	return &s, nil
}
