package memory

import (
	"context"
	"sync"

	"github.com/peerly/peerly/pkg/storage"
)

// Storage implements storage.Storage using an in-process map
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// New creates an empty in-memory storage
func New() *Storage {
	return &Storage{
		values: make(map[string][]byte),
	}
}

// Get implements storage.Storage
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}

	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	// Return a copy so callers cannot mutate stored state
	return clone(value), nil
}

// Set implements storage.Storage
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	s.values[key] = clone(value)
	return nil
}

// Delete implements storage.Storage
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	delete(s.values, key)
	return nil
}

// Close implements storage.Storage
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
