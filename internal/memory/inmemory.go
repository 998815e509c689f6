package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxTurns bounds the per-owner history kept in process.
const DefaultMaxTurns = 50

// InMemoryStore keeps the newest turns per owner and drops older ones.
type InMemoryStore struct {
	mu       sync.RWMutex
	maxTurns int
	turns    map[string][]Turn
}

func NewInMemoryStore(maxTurns int) *InMemoryStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &InMemoryStore{maxTurns: maxTurns, turns: make(map[string][]Turn)}
}

func (s *InMemoryStore) Append(_ context.Context, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	owner := strings.TrimSpace(turn.OwnerKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.turns[owner], turn)
	if over := len(list) - s.maxTurns; over > 0 {
		list = append([]Turn(nil), list[over:]...)
	}
	s.turns[owner] = list
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, owner string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.turns[strings.TrimSpace(owner)]
	if len(list) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Turn, limit)
	copy(out, list[len(list)-limit:])
	return out, nil
}

func (s *InMemoryStore) Forget(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, strings.TrimSpace(owner))
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
