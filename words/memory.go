package words

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store. It backs tests and dev-mode runs
// where no datastore is reachable.
type MemStore struct {
	mu    sync.Mutex
	words map[string]struct{}
}

// NewMemStore constructs an empty *MemStore.
func NewMemStore() *MemStore {
	return &MemStore{words: make(map[string]struct{})}
}

func (s *MemStore) Put(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.words[name]; ok {
		return ErrExists
	}
	s.words[name] = struct{}{}
	return nil
}

func (s *MemStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.words[name]; !ok {
		return ErrNotFound
	}
	delete(s.words, name)
	return nil
}

func (s *MemStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.words))
	for name := range s.words {
		names = append(names, name)
	}
	return names, nil
}
