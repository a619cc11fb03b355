package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/pkg/logger"
)

// File reads a snapshot dump from disk.
type File struct {
	path string
	log  logger.Logger
}

// FileOption applies a configuration option to File.
type FileOption func(*File)

// WithFileLogger sets the logger.
func WithFileLogger(l logger.Logger) FileOption {
	return func(f *File) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFile creates a file source for path.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{path: path, log: logger.Get().Named("source.file")}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name identifies the source in logs and metrics.
func (f *File) Name() string { return "file" }

// Load reads and decodes the dump.
func (f *File) Load(ctx context.Context) (model.RawUserMap, error) {
	fh, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer func() { _ = fh.Close() }()

	users, err := decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	f.log.Debug(ctx, "snapshot loaded", logger.String("path", f.path), logger.Int("users", len(users)))
	return users, nil
}
