package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

func Must(err error) {
	if err != nil {
		panic(fmt.Errorf("internal error: %w", err))
	}
}

func Ptr[T any](v T) *T {
	return &v
}

// ConfinedPath joins name to dir and fails when the result escapes dir.
func ConfinedPath(dir, name string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(root, name)
	if !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", name, dir)
	}
	return path, nil
}
