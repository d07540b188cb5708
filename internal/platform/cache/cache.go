// Package cache provides a small TTL keyed store with an injected clock so
// callers control expiry in tests and no package-level state is shared.
package cache

import (
	"sync"
	"time"
)

// TTLStore caches values for a fixed duration keyed by string.
type TTLStore[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu sync.RWMutex
	m  map[string]entry[T]
}

type entry[T any] struct {
	value   T
	expires time.Time
}

// NewTTLStore constructs a store. A non-positive ttl defaults to five
// minutes; a nil clock defaults to time.Now.
func NewTTLStore[T any](ttl time.Duration, now func() time.Time) *TTLStore[T] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &TTLStore[T]{
		ttl: ttl,
		now: now,
		m:   make(map[string]entry[T]),
	}
}

// Get returns the cached value when present and unexpired.
func (s *TTLStore[T]) Get(key string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expires) {
		return zero, false
	}
	return e.value, true
}

// Set stores the value under key for the configured TTL.
func (s *TTLStore[T]) Set(key string, value T) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.m[key] = entry[T]{value: value, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

// Delete removes a single key.
func (s *TTLStore[T]) Delete(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Clear drops every cached entry.
func (s *TTLStore[T]) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.m = make(map[string]entry[T])
	s.mu.Unlock()
}
