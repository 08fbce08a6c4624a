package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are removed lazily
// on Get and when Set needs room.
type MemoryStore[V any] struct {
	mu         sync.RWMutex
	items      map[Key]entry[V]
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore holds at most maxEntries values.
func NewMemoryStore[V any](maxEntries int) *MemoryStore[V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &MemoryStore[V]{
		items:      make(map[Key]entry[V]),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetClock replaces the time source.
func (s *MemoryStore[V]) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore[V]) Get(_ context.Context, key Key) (V, bool, error) {
	s.mu.RLock()
	e, ok := s.items[key]
	now := s.now()
	s.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false, nil
	}
	if !now.Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && !now.Before(cur.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return zero, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore[V]) Set(_ context.Context, key Key, value V, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, exists := s.items[key]; !exists && len(s.items) >= s.maxEntries {
		s.evictLocked(now)
	}
	s.items[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// evictLocked drops expired entries, or the one closest to expiry when
// none has expired.
func (s *MemoryStore[V]) evictLocked(now time.Time) {
	var (
		oldest    Key
		oldestAt  time.Time
		haveOld   bool
		anyPurged bool
	)
	for k, e := range s.items {
		if !now.Before(e.expiresAt) {
			delete(s.items, k)
			anyPurged = true
			continue
		}
		if !haveOld || e.expiresAt.Before(oldestAt) {
			oldest, oldestAt, haveOld = k, e.expiresAt, true
		}
	}
	if !anyPurged && haveOld {
		delete(s.items, oldest)
	}
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Purge removes every entry.
func (s *MemoryStore[V]) Purge() {
	s.mu.Lock()
	s.items = make(map[Key]entry[V])
	s.mu.Unlock()
}
