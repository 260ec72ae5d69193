// Package ratelimit implements a sliding-window request limiter keyed by an
// opaque caller identifier (typically the client IP). Timestamps inside the
// window are held in a pluggable Store so tests can inspect state and a
// shared backend can replace the in-memory table without touching callers.
package ratelimit

import (
	"sync"
	"time"
)

// Store persists the timestamp list for each caller key. Implementations
// must be safe for concurrent use of individual calls; the Limiter serialises
// the read-filter-append sequence itself.
type Store interface {
	// Get returns the recorded timestamps for key, in epoch milliseconds.
	Get(key string) []int64
	// Set replaces the recorded timestamps for key.
	Set(key string, stamps []int64)
}

// MemoryStore is the process-local Store. Entries live for the process
// lifetime; stale timestamps are dropped lazily on access, never the keys
// themselves. Accepted limitation for a single-instance personal site.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]int64)}
}

// Get returns a copy of the stored timestamps for key.
func (s *MemoryStore) Get(key string) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stamps, ok := s.entries[key]
	if !ok {
		return nil
	}
	out := make([]int64, len(stamps))
	copy(out, stamps)
	return out
}

// Set replaces the stored timestamps for key.
func (s *MemoryStore) Set(key string, stamps []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = stamps
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Limiter rejects a caller once their request count within the trailing
// window reaches max. Rejected attempts are not recorded, so a caller at the
// cap does not push their own window forward by retrying.
type Limiter struct {
	store  Store
	window time.Duration
	max    int

	mu  sync.Mutex
	now func() time.Time
}

// New constructs a Limiter over the given store. A nil store gets a fresh
// MemoryStore; max <= 0 disables limiting entirely.
func New(store Store, window time.Duration, max int) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{
		store:  store,
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// WithClock overrides the limiter's time source. Useful for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Allow reports whether key may proceed, recording the attempt when it may.
// The whole read-filter-append sequence runs under one lock so concurrent
// submissions from the same key cannot lose updates.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.max <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UnixMilli()
	cutoff := now - l.window.Milliseconds()

	stamps := l.store.Get(key)
	recent := stamps[:0]
	for _, ts := range stamps {
		if ts > cutoff {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.max {
		// Persist the pruned list but do not record the rejected attempt.
		l.store.Set(key, recent)
		return false
	}

	recent = append(recent, now)
	l.store.Set(key, recent)
	return true
}

// Remaining reports how many attempts key has left in the current window.
func (l *Limiter) Remaining(key string) int {
	if l == nil || l.max <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().UnixMilli() - l.window.Milliseconds()

	count := 0
	for _, ts := range l.store.Get(key) {
		if ts > cutoff {
			count++
		}
	}

	if count >= l.max {
		return 0
	}
	return l.max - count
}
