package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/hupe1980/jeeves/core"
)

// DefaultPebbleKey is the key holding the snapshot blob.
const DefaultPebbleKey = "jeeves:state"

// PebbleStore persists the snapshot blob under a single Pebble key.
type PebbleStore struct {
	db   *pebble.DB
	key  []byte
	opts Options
}

// OpenPebbleStore opens (or creates) a Pebble database at path.
func OpenPebbleStore(path string, optFns ...func(o *Options)) (*PebbleStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state: pebble path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("state: create directory: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("state: open pebble: %w", err)
	}
	opts := newOptions(optFns)
	opts.Logger.Info("pebble state store opened", "path", path)
	return &PebbleStore{db: db, key: []byte(DefaultPebbleKey), opts: opts}, nil
}

// Load implements core.StateStore.
func (s *PebbleStore) Load() *core.Snapshot {
	v, closer, err := s.db.Get(s.key)
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			s.opts.Logger.Warn("reading pebble state failed", "error", err)
		}
		return core.EmptySnapshot()
	}
	defer closer.Close()
	// v is only valid until closer is closed
	data := make([]byte, len(v))
	copy(data, v)
	return s.opts.decode(data)
}

// Save implements core.StateStore.
func (s *PebbleStore) Save(snap *core.Snapshot) error {
	data, encErr := s.opts.encode(snap)
	if err := s.db.Set(s.key, data, pebble.Sync); err != nil {
		return errors.Join(encErr, fmt.Errorf("state: pebble set: %w", err))
	}
	return encErr
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
