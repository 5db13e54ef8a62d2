package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLogStore persists the email audit trail in the email_log table.
type PostgresLogStore struct {
	pool *pgxpool.Pool
}

// NewPostgresLogStore creates a log store backed by pgx.
func NewPostgresLogStore(pool *pgxpool.Pool) *PostgresLogStore {
	return &PostgresLogStore{pool: pool}
}

// Record inserts a log row.
func (s *PostgresLogStore) Record(ctx context.Context, entry *EmailLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_log (id, recipient, subject, template, status, error, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.To, entry.Subject, entry.Template, entry.Status, entry.Error, entry.SentAt, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("mailer: record email log: %w", err)
	}
	return nil
}

// List returns the most recent entries.
func (s *PostgresLogStore) List(ctx context.Context, limit int) ([]*EmailLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipient, subject, template, status, error, sent_at, created_at
		FROM email_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("mailer: list email log: %w", err)
	}
	defer rows.Close()

	var out []*EmailLog
	for rows.Next() {
		var e EmailLog
		if err := rows.Scan(&e.ID, &e.To, &e.Subject, &e.Template, &e.Status, &e.Error, &e.SentAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("mailer: scan email log: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

var _ LogStore = (*PostgresLogStore)(nil)
