package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File-backed slots. One human-readable file per key inside a directory.
// No locking; a single local user owns the directory.

const fileExt = ".json"

// Dir stores each key as <dir>/<key>.json.
type Dir struct {
	path string
}

// New returns a Dir rooted at dir. The directory is created on first Set.
func New(dir string) *Dir {
	return &Dir{path: dir}
}

// Path returns the file a key is stored in.
func (d *Dir) Path(key string) string {
	return filepath.Join(d.path, key+fileExt)
}

// Get reads the key's file. A missing file is reported as ok=false.
func (d *Dir) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(d.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read file: %w", err)
	}
	return b, true, nil
}

// Set replaces the file through a temp file and rename, so a reader never
// sees a half-written list.
func (d *Dir) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(d.path, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.Path(key)); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
