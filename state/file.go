package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hupe1980/jeeves/core"
)

// FileStore persists the snapshot as a single file. Saves write a sibling
// temporary file and rename it over the target so a crash never leaves a
// half-written blob behind.
type FileStore struct {
	path string
	opts Options
}

// NewFileStore returns a store backed by path. The parent directory is
// created if necessary.
func NewFileStore(path string, optFns ...func(o *Options)) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("state: create directory: %w", err)
	}
	return &FileStore{path: path, opts: newOptions(optFns)}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load implements core.StateStore.
func (s *FileStore) Load() *core.Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.opts.Logger.Warn("reading state file failed", "path", s.path, "error", err)
		}
		return core.EmptySnapshot()
	}
	return s.opts.decode(data)
}

// Save implements core.StateStore.
func (s *FileStore) Save(snap *core.Snapshot) error {
	data, encErr := s.opts.encode(snap)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Join(encErr, fmt.Errorf("state: create temp file: %w", err))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Join(encErr, fmt.Errorf("state: write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(encErr, fmt.Errorf("state: close temp file: %w", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(encErr, fmt.Errorf("state: replace state file: %w", err))
	}
	return encErr
}
