package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. It is used in tests and for
// single-instance deployments that do not need persistence.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry), now: time.Now}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.Expired(s.now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.Data...), true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e, err := newEntry(key, data, s.now(), ttl)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]Entry)
	return n, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var size int64
	for k, e := range s.entries {
		size += int64(len(k) + len(e.Data))
	}
	return newStats("memory", len(s.entries), size), nil
}
