package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores contacts in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("contacts: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Upsert inserts the contact or refreshes name/phone on email conflict.
func (r *PostgresRepository) Upsert(ctx context.Context, c *Contact) (*Contact, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	query := `
		INSERT INTO contacts (id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    updated_at = now()
		RETURNING id, created_at, updated_at
	`
	out := *c
	out.Email = email
	var createdAt, updatedAt time.Time
	var id string
	if err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), c.FirstName, c.LastName, email, c.Phone,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("contacts: upsert failed: %w", err)
	}
	out.ID = id
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return &out, nil
}

// GetByID fetches a contact row.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Contact, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, created_at, updated_at
		FROM contacts
		WHERE id = $1
	`
	var c Contact
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("contacts: select failed: %w", err)
	}
	return &c, nil
}

var _ Repository = (*PostgresRepository)(nil)
