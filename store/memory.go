package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a value. Returns ("", false, nil) on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if s.now().After(entry.expiresAt) {
		// Expired - clean up lazily
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", false, nil
	}

	return entry.value, true, nil
}

// Put stores a value with the given TTL. TTL <= 0 means no storage.
func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = &memoryEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()

	return nil
}

// Remove deletes a key. Idempotent - no error on miss.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// SetClock overrides the time source. Intended for tests simulating
// expiry without sleeping.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
