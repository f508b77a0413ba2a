package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore tracks request counts per key inside a fixed window. Incr
// returns the count after recording the hit and the instant the window resets.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// MemoryStore is a process-local CounterStore backed by a mutex-guarded map.
// Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	lastGC  time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// NewMemoryStore creates an in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
		lastGC:  time.Now(),
	}
}

// Incr records a hit for key within the current window.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(window)}
		s.entries[key] = entry
	}
	entry.count++

	// Evict expired windows opportunistically to bound memory growth.
	if now.Sub(s.lastGC) > 5*time.Minute {
		for k, e := range s.entries {
			if now.After(e.resetAt) {
				delete(s.entries, k)
			}
		}
		s.lastGC = now
	}

	return entry.count, entry.resetAt, nil
}
