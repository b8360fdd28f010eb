// Package storage provides the key-value port that every persisted collection is built on.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

//go:generate mockgen -source=store.go -destination=../mocks/storage/mock_store.go -package=mock_storage

// Store is a string key-value store. A missing key is reported with ok == false, not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// ErrNotPersisted marks a write that updated in-memory state but did not reach the backing store.
var ErrNotPersisted = errors.New("change was not persisted")

// PersistError is returned by collection stores when the backing store rejected a write.
// The in-memory state of the collection has already been updated.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNotPersisted, e.Key, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrNotPersisted, e.Err}
}

// MemoryStore keeps values in process memory. It is used in tests and as the "memory" backend.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
