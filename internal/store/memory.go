package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot is cached.
	ErrNotFound = errors.New("no weather snapshot cached")
)

// MemoryStore is a concurrency-safe single-slot snapshot cache.
type MemoryStore struct {
	mu sync.RWMutex

	snapshot *weather.Snapshot
	storedAt time.Time
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Store replaces the cached snapshot. A nil snapshot clears the cache.
func (s *MemoryStore) Store(snapshot *weather.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snapshot
	if snapshot == nil {
		s.storedAt = time.Time{}
		return
	}
	s.storedAt = s.now().UTC()
}

// Load returns the cached snapshot.
func (s *MemoryStore) Load() (*weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, ErrNotFound
	}
	return s.snapshot, nil
}

// Clear drops the cached snapshot.
func (s *MemoryStore) Clear() {
	s.Store(nil)
}

// StoredAt returns when the current snapshot was stored; zero when empty.
func (s *MemoryStore) StoredAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storedAt
}
