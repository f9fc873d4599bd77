package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a stored report no longer exists.
var ErrNotFound = errors.New("report not found")

// Storage keeps rendered reports. The location returned by Put is what the
// check-in records and what Open accepts.
type Storage interface {
	Put(ctx context.Context, name, contentType string, body []byte) (string, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Type() string
}

type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %q: %w", abs, err)
	}
	return &LocalStorage{dir: abs}, nil
}

func (l *LocalStorage) Put(_ context.Context, name, _ string, body []byte) (string, error) {
	path := filepath.Join(l.dir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (l *LocalStorage) Open(_ context.Context, location string) (io.ReadCloser, error) {
	path := filepath.Clean(location)
	if !strings.HasPrefix(path, l.dir+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s is outside the report directory", ErrNotFound, location)
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *LocalStorage) Type() string {
	return "local"
}
