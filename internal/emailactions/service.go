package emailactions

import (
	"context"
	"errors"
	"time"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/observability/metrics"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/internal/tokens"
	"github.com/systemsmatic/backend/pkg/logging"
)

// ErrTokenMismatch is returned when a structurally valid token targets a
// different entity or action than the request claims.
var ErrTokenMismatch = errors.New("Token invalide pour cette action")

// Result is the envelope every email action responds with.
type Result struct {
	Success     bool                      `json:"success"`
	Message     string                    `json:"message"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
	Quote       *quotes.Quote             `json:"quote,omitempty"`
}

// Success messages shown on the public action pages.
const (
	msgAppointmentAccepted = "Rendez-vous accepté avec succès"
	msgAppointmentRejected = "Rendez-vous refusé avec succès"
	msgRescheduleProposed  = "Proposition de reprogrammation envoyée"
	msgQuoteAccepted       = "Devis accepté avec succès"
	msgQuoteRejected       = "Devis refusé avec succès"
)

// Service dispatches one-click email actions. Each action consumes its token
// first; only a consumed, entity-matched token reaches the status machine.
type Service struct {
	verifier     *tokens.Verifier
	appointments *appointments.Service
	quotes       *quotes.Service
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewService wires the email action dispatcher.
func NewService(verifier *tokens.Verifier, appointmentSvc *appointments.Service, quoteSvc *quotes.Service, m *metrics.Metrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		verifier:     verifier,
		appointments: appointmentSvc,
		quotes:       quoteSvc,
		metrics:      m,
		logger:       logger,
	}
}

// consume burns the token, then checks it targets the claimed entity and
// action. A mismatched token is still burned: it was exposed in a request and
// must not remain usable.
func (s *Service) consume(ctx context.Context, raw string, typ tokens.EntityType, entityID, action string) error {
	tok, err := s.verifier.VerifyAndConsume(ctx, raw)
	if err != nil {
		s.metrics.ObserveActionOutcome(string(typ), action, outcomeOf(err))
		return err
	}
	if tok.Type != typ || tok.EntityID != entityID || tok.Action != action {
		s.logger.Warn("token mismatch",
			"expected_type", string(typ), "expected_entity", entityID, "expected_action", action,
			"got_type", string(tok.Type), "got_entity", tok.EntityID, "got_action", tok.Action)
		s.metrics.ObserveActionOutcome(string(typ), action, "mismatch")
		return ErrTokenMismatch
	}
	s.metrics.ObserveActionOutcome(string(typ), action, "success")
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, tokens.ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, tokens.ErrUsedToken):
		return "used_token"
	case errors.Is(err, tokens.ErrInvalidToken):
		return "invalid_token"
	default:
		return "error"
	}
}

// AcceptAppointment confirms the appointment, optionally fixing its date.
func (s *Service) AcceptAppointment(ctx context.Context, id, token string, scheduledAt *time.Time) (*Result, error) {
	if err := s.consume(ctx, token, tokens.EntityAppointment, id, tokens.ActionAccept); err != nil {
		return nil, err
	}
	a, err := s.appointments.Accept(ctx, id, scheduledAt)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: msgAppointmentAccepted, Appointment: a}, nil
}

// RejectAppointment cancels the appointment.
func (s *Service) RejectAppointment(ctx context.Context, id, token, reason string) (*Result, error) {
	if err := s.consume(ctx, token, tokens.EntityAppointment, id, tokens.ActionReject); err != nil {
		return nil, err
	}
	a, err := s.appointments.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: msgAppointmentRejected, Appointment: a}, nil
}

// ProposeReschedule records a new-date proposal and mails the client fresh
// confirm/cancel links.
func (s *Service) ProposeReschedule(ctx context.Context, id, token string, newScheduledAt time.Time) (*Result, error) {
	if err := s.consume(ctx, token, tokens.EntityAppointment, id, tokens.ActionReschedule); err != nil {
		return nil, err
	}
	a, err := s.appointments.ProposeReschedule(ctx, id, newScheduledAt)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: msgRescheduleProposed, Appointment: a}, nil
}

// AcceptQuote marks the quote accepted with its optional document reference.
func (s *Service) AcceptQuote(ctx context.Context, id, token string, document *string, validUntil *time.Time) (*Result, error) {
	if err := s.consume(ctx, token, tokens.EntityQuote, id, tokens.ActionAccept); err != nil {
		return nil, err
	}
	q, err := s.quotes.Accept(ctx, id, quotes.AcceptParams{Document: document, ValidUntil: validUntil})
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: msgQuoteAccepted, Quote: q}, nil
}

// RejectQuote marks the quote rejected. The reason is validated before the
// token would even matter, so a blank reason never burns a token.
func (s *Service) RejectQuote(ctx context.Context, id, token, reason string) (*Result, error) {
	if err := quotes.ValidateRejectionReason(reason); err != nil {
		return nil, err
	}
	if err := s.consume(ctx, token, tokens.EntityQuote, id, tokens.ActionReject); err != nil {
		return nil, err
	}
	q, err := s.quotes.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: msgQuoteRejected, Quote: q}, nil
}

// VerifyToken is the non-consuming preflight used by the action landing pages.
func (s *Service) VerifyToken(ctx context.Context, token string) tokens.PeekResult {
	return s.verifier.Peek(ctx, token)
}
