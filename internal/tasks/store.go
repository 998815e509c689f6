package tasks

import (
	"context"
	"errors"
)

var ErrStoreUnavailable = errors.New("task store unavailable")

// Store keeps finalized tasks per owner in insertion order.
type Store interface {
	Add(ctx context.Context, task Task) error
	List(ctx context.Context, owner string) ([]Task, error)
	Grouped(ctx context.Context, owner string) (Grouped, error)
	ByType(ctx context.Context, owner string, taskType Type) ([]Task, error)
	Active(ctx context.Context, owner string) ([]Task, error)
	// Delete removes the task with id owned by owner. A missing id is not an error.
	Delete(ctx context.Context, owner, id string) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

func filterType(list []Task, taskType Type) []Task {
	out := make([]Task, 0, len(list))
	for _, task := range list {
		if task.Type == taskType {
			out = append(out, task)
		}
	}
	return out
}

// FilterActive keeps the tasks whose status is active.
func FilterActive(list []Task) []Task {
	out := make([]Task, 0, len(list))
	for _, task := range list {
		if task.Status == StatusActive {
			out = append(out, task)
		}
	}
	return out
}
