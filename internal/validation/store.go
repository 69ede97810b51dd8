package validation

import (
	"context"
	"sync"
	"time"
)

// Store holds validation states keyed by session key.
//
// A missing key is reported through the boolean result, never as an error.
// Errors only come from remote backends (see RedisStore).
type Store interface {
	Get(ctx context.Context, sessionKey string) (State, bool, error)
	Set(ctx context.Context, sessionKey string, state State) error
	Clear(ctx context.Context, sessionKey string) error
	SweepOlderThan(ctx context.Context, maxAge time.Duration, now time.Time) (int, error)
}

// MemoryStore is a process-local Store. It is safe for concurrent use and
// never returns an error. Records are copied on the way in and out so callers
// cannot mutate stored state without going through Set.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Get returns the stored state, or false when the key is absent.
func (s *MemoryStore) Get(_ context.Context, sessionKey string) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sessionKey]
	if !ok {
		return State{}, false, nil
	}
	return state.clone(), true, nil
}

// Set replaces whatever is stored under sessionKey. Concurrent writers to the
// same key are last-writer-wins.
func (s *MemoryStore) Set(_ context.Context, sessionKey string, state State) error {
	s.mu.Lock()
	s.states[sessionKey] = state.clone()
	s.mu.Unlock()
	return nil
}

// Clear removes sessionKey if present.
func (s *MemoryStore) Clear(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	delete(s.states, sessionKey)
	s.mu.Unlock()
	return nil
}

// SweepOlderThan removes every entry whose key timestamp is more than maxAge
// before now and returns how many were removed.
func (s *MemoryStore) SweepOlderThan(_ context.Context, maxAge time.Duration, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.states {
		if isStale(key, maxAge, now) {
			delete(s.states, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live states.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
