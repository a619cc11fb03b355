package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// File writes the document to a local path, replacing it atomically.
type File struct {
	path string
}

// NewFile creates a file sink for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Name identifies the sink in logs and metrics.
func (f *File) Name() string { return "file" }

// Write creates parent directories, writes to a temporary file next to the target
// and renames it into place so readers never see a partial document.
func (f *File) Write(_ context.Context, doc []byte, _ Meta) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: file: %w", ErrWrite, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: file: %w", ErrWrite, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: file: %w", ErrWrite, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: file: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: file: %w", ErrWrite, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: file: %w", ErrWrite, err)
	}
	return nil
}
