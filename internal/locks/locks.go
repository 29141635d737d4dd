// Package locks provides the advisory per-plan generation lock. Scope is the
// running process only: it prevents duplicate work from concurrent requests
// hitting one instance, not cross-instance mutual exclusion. The durable
// store's pending re-check covers the cross-instance case.
package locks

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a crashed or wedged generation can hold a lock.
const DefaultTTL = 2 * time.Minute

// Store is an injected TTL lock map keyed by plan token.
type Store struct {
	mu      sync.Mutex
	held    map[string]time.Time
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewStore builds a lock store with the given TTL. A zero ttl uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{held: make(map[string]time.Time), ttl: ttl, nowFunc: time.Now}
}

// TryAcquire takes the lock for key when it is free or its holder's entry has
// aged past the TTL. Returns false when a live holder exists.
func (s *Store) TryAcquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if at, ok := s.held[key]; ok && now.Sub(at) < s.ttl {
		return false
	}
	s.held[key] = now
	return true
}

// Release frees the lock for key. Releasing an unheld key is a no-op.
func (s *Store) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, key)
}

// Held reports whether key currently has a live holder.
func (s *Store) Held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.held[key]
	return ok && s.nowFunc().Sub(at) < s.ttl
}
