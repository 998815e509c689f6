package tasks

import (
	"context"
	"strings"
)

// NewStore returns the in-memory store unless a database URL is configured.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
