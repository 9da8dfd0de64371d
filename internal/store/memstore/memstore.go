// Package memstore is an in-process slot. Nothing survives the process;
// it backs tests and the "memory" backend.
package memstore

import (
	"context"
	"slices"
	"sync"
)

// Store is a map of slots guarded by a mutex. The zero value is ready to use.
type Store struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{m: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string][]byte)
	}
	s.m[key] = slices.Clone(value)
	return nil
}
