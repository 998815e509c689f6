// Package conversation keeps the short-lived per-owner dialogue state that
// links a follow-up answer to the task draft awaiting it.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/antoniostano/claria/internal/tasks"
)

const (
	// IntentTaskEnrichment marks a state waiting on a draft slot.
	IntentTaskEnrichment = "task_enrichment"

	DefaultTTL = 300 * time.Second
)

var ErrEmptyKey = errors.New("conversation owner key is empty")

type State struct {
	Intent       string      `json:"intent,omitempty"`
	Slots        tasks.Draft `json:"slots"`
	AwaitingSlot tasks.Slot  `json:"awaiting_slot,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Pending reports whether a follow-up answer is expected.
func (s State) Pending() bool {
	return s.AwaitingSlot != ""
}

// Store holds one State per owner key. Load returns a fresh State for
// keys never saved or idle longer than the TTL.
type Store interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, state State) error
	Clear(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}
