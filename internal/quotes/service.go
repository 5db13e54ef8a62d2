package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/pkg/logging"
)

// Notifier sends outbound emails for quote lifecycle events.
type Notifier interface {
	QuoteReceived(ctx context.Context, q *Quote, c *contacts.Contact) error
	QuoteAccepted(ctx context.Context, q *Quote, c *contacts.Contact) error
	QuoteRejected(ctx context.Context, q *Quote, c *contacts.Contact) error
}

// Service implements the quote status machine and its side effects.
type Service struct {
	repo     Repository
	contacts contacts.Repository
	notifier Notifier
	logger   *logging.Logger
}

// NewService wires the quote service.
func NewService(repo Repository, contactRepo contacts.Repository, notifier Notifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		contacts: contactRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// Create handles the public quote form: upserts the contact, stores a PENDING
// quote and sends the admin notification plus the client acknowledgment.
func (s *Service) Create(ctx context.Context, req *CreateQuoteRequest) (*Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	contact, err := s.contacts.Upsert(ctx, &contacts.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("quotes: contact upsert: %w", err)
	}

	q := &Quote{
		ContactID:          contact.ID,
		ProjectDescription: req.Message,
		AcceptPhone:        req.AcceptPhone,
		AcceptTerms:        req.AcceptTerms,
		Status:             StatusPending,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("quote request created", "id", q.ID, "contact_id", contact.ID)
	s.notify(ctx, "quote received", func() error {
		return s.notifier.QuoteReceived(ctx, q, contact)
	})
	return q, nil
}

// AcceptParams carries the optional fields of an email-action accept.
type AcceptParams struct {
	Document   *string
	ValidUntil *time.Time
}

// Accept marks the quote ACCEPTED, stores the optional document reference and
// validity date, and sends the accepted email. This is the email-action entry
// point: it performs no status precondition check, double submissions being
// stopped at the token layer.
func (s *Service) Accept(ctx context.Context, id string, params AcceptParams) (*Quote, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	q.Status = StatusAccepted
	if params.Document != nil {
		q.QuoteDocument = params.Document
	}
	if params.ValidUntil != nil {
		t := params.ValidUntil.UTC()
		q.QuoteValidUntil = &t
	}
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	if contact := s.contactOf(ctx, q); contact != nil {
		s.notify(ctx, "quote accepted", func() error {
			return s.notifier.QuoteAccepted(ctx, q, contact)
		})
	}

	s.logger.Info("quote accepted", "id", q.ID)
	return q, nil
}

// Reject marks the quote REJECTED with the mandatory reason and sends the
// rejected email. Validation happens before the status machine runs.
func (s *Service) Reject(ctx context.Context, id, reason string) (*Quote, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}

	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	q.Status = StatusRejected
	q.RejectionReason = &reason
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	if contact := s.contactOf(ctx, q); contact != nil {
		s.notify(ctx, "quote rejected", func() error {
			return s.notifier.QuoteRejected(ctx, q, contact)
		})
	}

	s.logger.Info("quote rejected", "id", q.ID, "reason", reason)
	return q, nil
}

// UpdateStatusParams is the admin status-update payload.
type UpdateStatusParams struct {
	Status          Status     `json:"status"`
	Document        *string    `json:"quoteDocument,omitempty"`
	ValidUntil      *time.Time `json:"quoteValidUntil,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
}

// UpdateStatus is the admin entry point. Unlike the email-action path it
// enforces the status machine: a transition not in the legal set fails with
// ErrIllegalTransition.
func (s *Service) UpdateStatus(ctx context.Context, id string, params UpdateStatusParams) (*Quote, error) {
	if !params.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(q.Status, params.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, q.Status, params.Status)
	}

	return s.applyStatus(ctx, q, params)
}

func (s *Service) applyStatus(ctx context.Context, q *Quote, params UpdateStatusParams) (*Quote, error) {
	switch params.Status {
	case StatusAccepted:
		return s.Accept(ctx, q.ID, AcceptParams{Document: params.Document, ValidUntil: params.ValidUntil})
	case StatusRejected:
		reason := ""
		if params.RejectionReason != nil {
			reason = *params.RejectionReason
		}
		return s.Reject(ctx, q.ID, reason)
	default:
		q.Status = params.Status
		if params.Document != nil {
			q.QuoteDocument = params.Document
		}
		if params.ValidUntil != nil {
			t := params.ValidUntil.UTC()
			q.QuoteValidUntil = &t
		}
		if err := s.repo.Update(ctx, q); err != nil {
			return nil, err
		}
		return q, nil
	}
}

// UpdateParams is the admin free-form update payload.
type UpdateParams struct {
	Status          *Status    `json:"status,omitempty"`
	Document        *string    `json:"quoteDocument,omitempty"`
	ValidUntil      *time.Time `json:"quoteValidUntil,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
}

// Update applies a partial admin edit. Status changes go through the status
// machine; plain field edits do not.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Quote, error) {
	if params.Status != nil {
		return s.UpdateStatus(ctx, id, UpdateStatusParams{
			Status:          *params.Status,
			Document:        params.Document,
			ValidUntil:      params.ValidUntil,
			RejectionReason: params.RejectionReason,
		})
	}

	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Document != nil {
		q.QuoteDocument = params.Document
	}
	if params.ValidUntil != nil {
		t := params.ValidUntil.UTC()
		q.QuoteValidUntil = &t
	}
	if params.RejectionReason != nil {
		q.RejectionReason = params.RejectionReason
	}
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Get returns one quote.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a filtered page of quotes.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	return s.repo.List(ctx, filter)
}

// Stats returns dashboard counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) contactOf(ctx context.Context, q *Quote) *contacts.Contact {
	c, err := s.contacts.GetByID(ctx, q.ContactID)
	if err != nil {
		s.logger.Error("contact lookup failed", "quote_id", q.ID, "contact_id", q.ContactID, "error", err)
		return nil
	}
	return c
}

func (s *Service) notify(ctx context.Context, what string, send func() error) {
	if s.notifier == nil {
		return
	}
	if err := send(); err != nil {
		s.logger.Error("notification failed", "event", what, "error", err)
	}
}
