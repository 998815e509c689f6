package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists chat history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_turns (
			id TEXT PRIMARY KEY,
			owner_key TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_turns_owner_created ON chat_turns (owner_key, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_turns (id, owner_key, role, content, pii_redacted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID,
		strings.TrimSpace(turn.OwnerKey),
		turn.Role,
		turn.Content,
		turn.PIIRedacted,
		turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append chat turn: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, owner string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_key, role, content, pii_redacted, created_at
		 FROM chat_turns WHERE owner_key=$1 ORDER BY created_at DESC LIMIT $2`,
		strings.TrimSpace(owner),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	items := make([]Turn, 0, limit)
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.OwnerKey, &t.Role, &t.Content, &t.PIIRedacted, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat turns: %w", err)
	}

	// Oldest first so the prompt reads in order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (s *PostgresStore) Forget(ctx context.Context, owner string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chat_turns WHERE owner_key=$1`, strings.TrimSpace(owner)); err != nil {
		return fmt.Errorf("forget chat history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
