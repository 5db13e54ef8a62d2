package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores quotes in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("quotes: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const quoteColumns = `q.id, q.contact_id, q.project_description, q.accept_phone, q.accept_terms,
	q.status, q.quote_document, q.quote_valid_until, q.rejection_reason, q.created_at, q.updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, q *Quote) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	query := `
		INSERT INTO quotes (id, contact_id, project_description, accept_phone, accept_terms, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		q.ID, q.ContactID, q.ProjectDescription, q.AcceptPhone, q.AcceptTerms, string(q.Status),
	).Scan(&q.CreatedAt, &q.UpdatedAt); err != nil {
		return fmt.Errorf("quotes: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one row.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Quote, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes q WHERE q.id = $1`, id)
	return scanQuote(row)
}

// List returns a page of quotes, newest first. Search matches the contact's
// name or email.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	where := ` WHERE TRUE`
	args := []any{}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where += fmt.Sprintf(` AND q.status = $%d`, len(args))
	}
	join := ""
	if filter.Search != "" {
		join = ` JOIN contacts c ON c.id = q.contact_id`
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (c.first_name ILIKE $%d OR c.last_name ILIKE $%d OR c.email ILIKE $%d)`, n, n, n)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM quotes q`+join+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("quotes: count failed: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := `SELECT ` + quoteColumns + ` FROM quotes q` + join + where +
		fmt.Sprintf(` ORDER BY q.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("quotes: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quotes: rows failed: %w", err)
	}

	return &ListResult{Quotes: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Update rewrites all mutable columns.
func (r *PostgresRepository) Update(ctx context.Context, q *Quote) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotes
		SET project_description = $2, accept_phone = $3, status = $4,
		    quote_document = $5, quote_valid_until = $6, rejection_reason = $7, updated_at = now()
		WHERE id = $1`,
		q.ID, q.ProjectDescription, q.AcceptPhone, string(q.Status),
		q.QuoteDocument, q.QuoteValidUntil, q.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("quotes: update failed: %w", err)
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
		       count(*) FILTER (WHERE status = 'PROCESSING'),
		       count(*) FILTER (WHERE status = 'SENT'),
		       count(*) FILTER (WHERE status = 'ACCEPTED'),
		       count(*) FILTER (WHERE status = 'REJECTED'),
		       count(*) FILTER (WHERE status = 'EXPIRED')
		FROM quotes`,
	).Scan(&s.Total, &s.Pending, &s.Processing, &s.Sent, &s.Accepted, &s.Rejected, &s.Expired)
	if err != nil {
		return nil, fmt.Errorf("quotes: stats failed: %w", err)
	}
	return &s, nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var status string
	err := row.Scan(
		&q.ID, &q.ContactID, &q.ProjectDescription, &q.AcceptPhone, &q.AcceptTerms,
		&status, &q.QuoteDocument, &q.QuoteValidUntil, &q.RejectionReason, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("quotes: select failed: %w", err)
	}
	q.Status = Status(status)
	return &q, nil
}

var _ Repository = (*PostgresRepository)(nil)
