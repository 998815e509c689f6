package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, owner_key, type, content, description, meeting_type, meeting_link,
	location, fecha, hora, status, created_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initTaskSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initTaskSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assistant_tasks (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			owner_key TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			meeting_type TEXT NOT NULL DEFAULT '',
			meeting_link TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			fecha TEXT NOT NULL DEFAULT '',
			hora TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assistant_tasks_owner_seq ON assistant_tasks (owner_key, seq);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init task schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Add inserts a task once. Tasks are immutable, so a repeated id is ignored.
func (s *PostgresStore) Add(ctx context.Context, task Task) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assistant_tasks (`+taskColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING`,
		task.ID,
		strings.TrimSpace(task.OwnerKey),
		string(task.Type),
		task.Content,
		task.Description,
		string(task.MeetingType),
		task.MeetingLink,
		task.Location,
		task.Fecha,
		task.Hora,
		string(task.Status),
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]Task, error) {
	return s.query(ctx,
		`SELECT `+taskColumns+` FROM assistant_tasks WHERE owner_key=$1 ORDER BY seq ASC`,
		strings.TrimSpace(owner),
	)
}

func (s *PostgresStore) Grouped(ctx context.Context, owner string) (Grouped, error) {
	list, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return GroupTasks(list), nil
}

func (s *PostgresStore) ByType(ctx context.Context, owner string, taskType Type) ([]Task, error) {
	return s.query(ctx,
		`SELECT `+taskColumns+` FROM assistant_tasks WHERE owner_key=$1 AND type=$2 ORDER BY seq ASC`,
		strings.TrimSpace(owner), string(taskType),
	)
}

func (s *PostgresStore) Active(ctx context.Context, owner string) ([]Task, error) {
	return s.query(ctx,
		`SELECT `+taskColumns+` FROM assistant_tasks WHERE owner_key=$1 AND status=$2 ORDER BY seq ASC`,
		strings.TrimSpace(owner), string(StatusActive),
	)
}

func (s *PostgresStore) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM assistant_tasks WHERE owner_key=$1 AND id=$2`,
		strings.TrimSpace(owner), id,
	); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM assistant_tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]Task, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]Task, 0, 8)
	for rows.Next() {
		task, err := scanTaskRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task rows: %w", err)
	}
	return out, nil
}

func scanTaskRows(rows pgx.Rows) (Task, error) {
	var (
		task        Task
		taskType    string
		meetingType string
		status      string
	)
	if err := rows.Scan(
		&task.ID,
		&task.OwnerKey,
		&taskType,
		&task.Content,
		&task.Description,
		&meetingType,
		&task.MeetingLink,
		&task.Location,
		&task.Fecha,
		&task.Hora,
		&status,
		&task.CreatedAt,
	); err != nil {
		return Task{}, err
	}
	task.Type = Type(taskType)
	task.MeetingType = MeetingType(meetingType)
	task.Status = Status(status)
	return task, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
