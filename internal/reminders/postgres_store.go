package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore stores reminders in the reminders table, one row per
// appointment.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a reminder store backed by pgx.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Upsert creates or replaces the appointment's reminder.
func (s *PostgresStore) Upsert(ctx context.Context, r *Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO reminders (id, appointment_id, due_at, provider_ref, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $5)
		ON CONFLICT (appointment_id) DO UPDATE SET
			due_at = EXCLUDED.due_at,
			provider_ref = EXCLUDED.provider_ref,
			sent_at = NULL,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		r.ID, r.AppointmentID, r.DueAt, r.ProviderRef, now,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("reminders: upsert: %w", err)
	}
	r.UpdatedAt = now
	return nil
}

// GetByAppointmentID returns the appointment's reminder.
func (s *PostgresStore) GetByAppointmentID(ctx context.Context, appointmentID string) (*Reminder, error) {
	var r Reminder
	err := s.pool.QueryRow(ctx, `
		SELECT id, appointment_id, due_at, provider_ref, sent_at, created_at, updated_at
		FROM reminders WHERE appointment_id = $1`, appointmentID,
	).Scan(&r.ID, &r.AppointmentID, &r.DueAt, &r.ProviderRef, &r.SentAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reminders: get: %w", err)
	}
	return &r, nil
}

// MarkSent stamps the reminder as sent.
func (s *PostgresStore) MarkSent(ctx context.Context, appointmentID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE reminders SET sent_at = $2, updated_at = $3 WHERE appointment_id = $1`,
		appointmentID, at.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("reminders: mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByAppointmentID removes the appointment's reminder.
func (s *PostgresStore) DeleteByAppointmentID(ctx context.Context, appointmentID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM reminders WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("reminders: delete: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
