package state

import (
	"sync"

	"github.com/hupe1980/jeeves/core"
)

// InMemoryStore is a volatile StateStore keeping the serialized snapshot in
// a process local buffer. Going through the codec on every call gives the
// same copy semantics as the durable stores: loaded snapshots never alias
// stored state.
type InMemoryStore struct {
	mu   sync.RWMutex
	blob []byte
	opts Options
}

// NewInMemoryStore constructs an empty in‑memory state store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	return &InMemoryStore{opts: newOptions(optFns)}
}

// Load implements core.StateStore.
func (s *InMemoryStore) Load() *core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.decode(s.blob)
}

// Save implements core.StateStore.
func (s *InMemoryStore) Save(snap *core.Snapshot) error {
	data, err := s.opts.encode(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = data
	return err
}

// Raw returns a copy of the persisted blob.
func (s *InMemoryStore) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]byte, len(s.blob))
	copy(cp, s.blob)
	return cp
}
