package tasks

import (
	"context"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	byOwner map[string][]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byOwner: make(map[string][]Task)}
}

func (s *MemoryStore) Add(_ context.Context, task Task) error {
	owner := strings.TrimSpace(task.OwnerKey)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOwner[owner] = append(s.byOwner[owner], task)
	return nil
}

func (s *MemoryStore) List(_ context.Context, owner string) ([]Task, error) {
	return s.snapshot(owner), nil
}

func (s *MemoryStore) Grouped(_ context.Context, owner string) (Grouped, error) {
	return GroupTasks(s.snapshot(owner)), nil
}

func (s *MemoryStore) ByType(_ context.Context, owner string, taskType Type) ([]Task, error) {
	return filterType(s.snapshot(owner), taskType), nil
}

func (s *MemoryStore) Active(_ context.Context, owner string) ([]Task, error) {
	return FilterActive(s.snapshot(owner)), nil
}

func (s *MemoryStore) Delete(_ context.Context, owner, id string) error {
	owner = strings.TrimSpace(owner)
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.byOwner[owner]
	if !ok {
		return nil
	}
	kept := list[:0:0]
	for _, task := range list {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	if len(kept) == 0 {
		delete(s.byOwner, owner)
		return nil
	}
	s.byOwner[owner] = kept
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOwner = make(map[string][]Task)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Owners reports how many owners currently hold at least one task.
func (s *MemoryStore) Owners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byOwner)
}

func (s *MemoryStore) snapshot(owner string) []Task {
	owner = strings.TrimSpace(owner)
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byOwner[owner]
	out := make([]Task, len(list))
	copy(out, list)
	return out
}
