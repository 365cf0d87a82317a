package recordfsm

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"sync"
)

// MemoryStore is an in-process Store for embedding and tests. The
// conditional update runs under the store mutex, which makes it atomic the
// same way a database's single conditional statement is.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]any
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]any)}
}

func (s *MemoryStore) Insert(_ context.Context, key string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	s.records[key] = maps.Clone(values)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.records[key]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return maps.Clone(stored), nil
}

func (s *MemoryStore) ConditionalUpdate(_ context.Context, key string, expected, update map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[key]
	if !exists {
		return 0, nil
	}
	for column, want := range expected {
		if !reflect.DeepEqual(stored[column], want) {
			return 0, nil
		}
	}
	maps.Copy(stored, update)
	return 1, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[key]; !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	delete(s.records, key)
	return nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
