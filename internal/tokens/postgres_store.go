package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore stores action tokens in the email_action_tokens table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a token store backed by pgx.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("tokens: pgx db required")
	}
	return &PostgresStore{db: db}
}

// Create inserts a new token row.
func (s *PostgresStore) Create(ctx context.Context, t *ActionToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO email_action_tokens (id, token, type, entity_id, action, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
		t.ID, t.Token, string(t.Type), t.EntityID, t.Action, t.ExpiresAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("tokens: insert failed: %w", err)
	}
	return nil
}

// Get fetches a token row by its token string.
func (s *PostgresStore) Get(ctx context.Context, token string) (*ActionToken, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, token, type, entity_id, action, expires_at, is_used, used_at, created_at
		FROM email_action_tokens
		WHERE token = $1`, token)
	return scanToken(row)
}

// Consume marks the token used in a single conditional update so that at most
// one concurrent caller wins. Losers get a second read to find out why.
func (s *PostgresStore) Consume(ctx context.Context, token string, now time.Time) (*ActionToken, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE email_action_tokens
		SET is_used = TRUE, used_at = $2
		WHERE token = $1 AND is_used = FALSE AND expires_at > $2
		RETURNING id, token, type, entity_id, action, expires_at, created_at`, token, now)

	var t ActionToken
	var typ string
	err := row.Scan(&t.ID, &t.Token, &typ, &t.EntityID, &t.Action, &t.ExpiresAt, &t.CreatedAt)
	if err == nil {
		t.Type = EntityType(typ)
		// Pre-update snapshot: the row was unused at the moment of consumption.
		t.IsUsed = false
		t.UsedAt = nil
		return &t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tokens: consume failed: %w", err)
	}

	// The conditional update matched nothing. Diagnose.
	existing, getErr := s.Get(ctx, token)
	if getErr != nil {
		return nil, getErr
	}
	if !existing.ExpiresAt.After(now) {
		return nil, ErrExpiredToken
	}
	return nil, ErrUsedToken
}

func scanToken(row pgx.Row) (*ActionToken, error) {
	var t ActionToken
	var typ string
	err := row.Scan(&t.ID, &t.Token, &typ, &t.EntityID, &t.Action, &t.ExpiresAt, &t.IsUsed, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("tokens: select failed: %w", err)
	}
	t.Type = EntityType(typ)
	return &t, nil
}

var _ Store = (*PostgresStore)(nil)
