package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dom/hydration-tracker/internal/repository"
)

// Store is an in-process KVStore. Nothing survives a restart; it backs tests and
// the "memory" storage driver.
type Store struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

func NewStore() *Store {
	return &Store{values: make(map[string]json.RawMessage)}
}

func (s *Store) Get(_ context.Context, key repository.Key) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key.String()]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key repository.Key, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key.String()] = append(json.RawMessage(nil), value...)
	return nil
}

func (s *Store) Remove(_ context.Context, key repository.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key.String())
	return nil
}

// SetRaw stores value as-is, bypassing JSON encoding. Used to seed corrupt data.
func (s *Store) SetRaw(key repository.Key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key.String()] = json.RawMessage(value)
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
