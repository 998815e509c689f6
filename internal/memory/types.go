// Package memory keeps a short per-owner chat history so small-talk replies
// can follow the thread. Task drafts never live here.
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/antoniostano/claria/internal/policy"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one user or assistant chat message. Content is stored redacted.
type Turn struct {
	ID          string    `json:"id"`
	OwnerKey    string    `json:"user_key"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	PIIRedacted bool      `json:"pii_redacted"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTurn builds a turn with PII masked out of content.
func NewTurn(owner, role, content string) Turn {
	redacted, changed := policy.RedactPII(strings.TrimSpace(content))
	return Turn{
		OwnerKey:    strings.TrimSpace(owner),
		Role:        role,
		Content:     redacted,
		PIIRedacted: changed,
	}
}

// Store persists and retrieves chat history.
type Store interface {
	Append(ctx context.Context, turn Turn) error
	// Recent returns up to limit turns for owner, oldest first.
	Recent(ctx context.Context, owner string, limit int) ([]Turn, error)
	Forget(ctx context.Context, owner string) error
	Close() error
}
