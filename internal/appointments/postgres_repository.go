package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const appointmentColumns = `id, contact_id, reason, reason_other, message, timezone, status,
	requested_at, scheduled_at, confirmed_at, proposed_at, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO appointments (id, contact_id, reason, reason_other, message, timezone, status,
			requested_at, scheduled_at, confirmed_at, proposed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		a.ID, a.ContactID, a.Reason, a.ReasonOther, a.Message, a.Timezone, string(a.Status),
		a.RequestedAt, a.ScheduledAt, a.ConfirmedAt, a.ProposedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one row.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// List returns rows newest first, optionally filtered by status.
func (r *PostgresRepository) List(ctx context.Context, status *Status) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListUpcoming returns confirmed rows scheduled within the window.
func (r *PostgresRepository) ListUpcoming(ctx context.Context, within time.Duration) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'CONFIRMED'
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at BETWEEN now() AND now() + $1
		ORDER BY scheduled_at ASC`, within)
	if err != nil {
		return nil, fmt.Errorf("appointments: list upcoming failed: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// Update rewrites all mutable columns.
func (r *PostgresRepository) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reason = $2, reason_other = $3, message = $4, timezone = $5, status = $6,
		    scheduled_at = $7, confirmed_at = $8, proposed_at = $9, updated_at = now()
		WHERE id = $1`,
		a.ID, a.Reason, a.ReasonOther, a.Message, a.Timezone, string(a.Status),
		a.ScheduledAt, a.ConfirmedAt, a.ProposedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats computes dashboard counters in one round trip.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'PENDING'),
		       count(*) FILTER (WHERE status = 'CONFIRMED'),
		       count(*) FILTER (WHERE status = 'CANCELLED'),
		       count(*) FILTER (WHERE status = 'CONFIRMED'
		                        AND scheduled_at BETWEEN now() AND now() + interval '7 days')
		FROM appointments`,
	).Scan(&s.Total, &s.Pending, &s.Confirmed, &s.Cancelled, &s.Upcoming)
	if err != nil {
		return nil, fmt.Errorf("appointments: stats failed: %w", err)
	}
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(
		&a.ID, &a.ContactID, &a.Reason, &a.ReasonOther, &a.Message, &a.Timezone, &status,
		&a.RequestedAt, &a.ScheduledAt, &a.ConfirmedAt, &a.ProposedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	a.Status = Status(status)
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}

var _ Repository = (*PostgresRepository)(nil)
