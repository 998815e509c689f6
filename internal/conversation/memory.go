package conversation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore expires entries lazily on Load. There is no sweeper.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		states: make(map[string]State),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, key string) (State, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return State{}, err
	}
	now := s.now().UTC()

	s.mu.RLock()
	st, ok := s.states[key]
	s.mu.RUnlock()
	if !ok {
		return State{UpdatedAt: now}, nil
	}
	if now.Sub(st.UpdatedAt) >= s.ttl {
		s.mu.Lock()
		if cur, ok := s.states[key]; ok && cur.UpdatedAt.Equal(st.UpdatedAt) {
			delete(s.states, key)
		}
		s.mu.Unlock()
		return State{UpdatedAt: now}, nil
	}
	return st, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, state State) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	state.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Len reports stored entries, including expired ones not yet read.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
