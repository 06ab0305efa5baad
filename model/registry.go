package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry resolves model identifiers to the backend that serves them.
// Exact registrations win over prefix registrations; among prefixes the
// longest match wins. A fallback serves everything else.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]Model
	prefixes map[string]Model
	fallback Model
}

// NewRegistry constructs a Registry with an optional fallback backend.
func NewRegistry(fallback Model) *Registry {
	return &Registry{
		exact:    make(map[string]Model),
		prefixes: make(map[string]Model),
		fallback: fallback,
	}
}

// Register routes exactly the model id name to m.
func (r *Registry) Register(name string, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[name] = m
}

// RegisterPrefix routes every model id starting with prefix to m.
func (r *Registry) RegisterPrefix(prefix string, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = m
}

// Resolve returns the backend serving the model id.
func (r *Registry) Resolve(id string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.exact[id]; ok {
		return m, nil
	}
	keys := make([]string, 0, len(r.prefixes))
	for p := range r.prefixes {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, p := range keys {
		if strings.HasPrefix(id, p) {
			return r.prefixes[p], nil
		}
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("no backend registered for model %q", id)
}
