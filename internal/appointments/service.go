package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/pkg/logging"
)

// Notifier sends outbound emails for appointment lifecycle events. Send
// failures are logged by the service and never abort a committed transition.
type Notifier interface {
	AppointmentReceived(ctx context.Context, a *Appointment, c *contacts.Contact) error
	AppointmentConfirmed(ctx context.Context, a *Appointment, c *contacts.Contact) error
	AppointmentCancelled(ctx context.Context, a *Appointment, c *contacts.Contact) error
	RescheduleProposed(ctx context.Context, a *Appointment, c *contacts.Contact, newScheduledAt time.Time) error
	AppointmentReminder(ctx context.Context, a *Appointment, c *contacts.Contact) error
}

// ReminderScheduler keeps the 24h-before reminder in sync with the
// appointment. Both calls are best effort and idempotent.
type ReminderScheduler interface {
	Schedule(ctx context.Context, appointmentID string, scheduledAt time.Time) error
	Cancel(ctx context.Context, appointmentID string) error
}

// Service implements the appointment status machine and its side effects.
type Service struct {
	repo      Repository
	contacts  contacts.Repository
	notifier  Notifier
	reminders ReminderScheduler
	logger    *logging.Logger
}

// NewService wires the appointment service.
func NewService(repo Repository, contactRepo contacts.Repository, notifier Notifier, reminders ReminderScheduler, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		contacts:  contactRepo,
		notifier:  notifier,
		reminders: reminders,
		logger:    logger,
	}
}

// CreateRequest handles the public booking form: upserts the contact, stores a
// PENDING appointment and notifies the admin.
func (s *Service) CreateRequest(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
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
		return nil, fmt.Errorf("appointments: contact upsert: %w", err)
	}

	reason := req.Reason
	if reason == "" {
		reason = ReasonOther
	}
	a := &Appointment{
		ContactID:   contact.ID,
		Reason:      reason,
		ReasonOther: req.ReasonOther,
		Message:     req.Message,
		Timezone:    "America/Guadeloupe",
		Status:      StatusPending,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("appointment request created", "id", a.ID, "contact_id", contact.ID)
	s.notify(ctx, "appointment received", func() error {
		return s.notifier.AppointmentReceived(ctx, a, contact)
	})
	return a, nil
}

// Accept confirms the appointment: status=CONFIRMED, confirmedAt=now, optional
// scheduledAt override. The reminder is (re)scheduled and a confirmation email
// goes out. The email-action path deliberately does not re-check the current
// status; a consumed, entity-matched token stands for a single legitimate
// intent, and double accepts are stopped at the token layer.
func (s *Service) Accept(ctx context.Context, id string, scheduledAt *time.Time) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a.Status = StatusConfirmed
	a.ConfirmedAt = &now
	a.ProposedAt = nil
	if scheduledAt != nil {
		t := scheduledAt.UTC()
		a.ScheduledAt = &t
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	if a.ScheduledAt != nil {
		if err := s.reminders.Schedule(ctx, a.ID, *a.ScheduledAt); err != nil {
			s.logger.Error("reminder scheduling failed", "appointment_id", a.ID, "error", err)
		}
	}

	contact := s.contactOf(ctx, a)
	s.notify(ctx, "appointment confirmed", func() error {
		return s.notifier.AppointmentConfirmed(ctx, a, contact)
	})

	s.logger.Info("appointment accepted", "id", a.ID)
	return a, nil
}

// Reject cancels the appointment and drops its reminder. The reason is logged
// only; it does not alter the transition.
func (s *Service) Reject(ctx context.Context, id, reason string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.Status = StatusCancelled
	a.ProposedAt = nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	if err := s.reminders.Cancel(ctx, a.ID); err != nil {
		s.logger.Error("reminder cancellation failed", "appointment_id", a.ID, "error", err)
	}

	contact := s.contactOf(ctx, a)
	s.notify(ctx, "appointment cancelled", func() error {
		return s.notifier.AppointmentCancelled(ctx, a, contact)
	})

	s.logger.Info("appointment rejected", "id", a.ID, "reason", reason)
	return a, nil
}

// ProposeReschedule records a pending proposal for a new date and sends the
// client a proposal email carrying fresh confirm/cancel tokens for that date.
// The status itself does not change until the client responds.
func (s *Service) ProposeReschedule(ctx context.Context, id string, newScheduledAt time.Time) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t := newScheduledAt.UTC()
	a.ProposedAt = &t
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	contact := s.contactOf(ctx, a)
	s.notify(ctx, "reschedule proposed", func() error {
		return s.notifier.RescheduleProposed(ctx, a, contact, t)
	})

	s.logger.Info("reschedule proposed", "id", a.ID, "new_scheduled_at", t)
	return a, nil
}

// UpdateStatusParams is the admin status-update payload.
type UpdateStatusParams struct {
	Status      Status     `json:"status"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// UpdateStatus is the admin entry point behind the backoffice. It reuses the
// accept/reject side effects where they apply.
func (s *Service) UpdateStatus(ctx context.Context, id string, params UpdateStatusParams) (*Appointment, error) {
	if !params.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	switch params.Status {
	case StatusConfirmed:
		return s.Accept(ctx, id, params.ScheduledAt)
	case StatusCancelled:
		return s.Reject(ctx, id, "")
	default:
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		a.Status = params.Status
		if params.ScheduledAt != nil {
			t := params.ScheduledAt.UTC()
			a.ScheduledAt = &t
		}
		if err := s.repo.Update(ctx, a); err != nil {
			return nil, err
		}
		return a, nil
	}
}

// Reschedule moves a confirmed appointment to a new date directly (admin
// flow), updating the reminder and re-sending the confirmation email.
func (s *Service) Reschedule(ctx context.Context, id string, scheduledAt time.Time) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t := scheduledAt.UTC()
	a.ScheduledAt = &t
	a.ProposedAt = nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	if err := s.reminders.Schedule(ctx, a.ID, t); err != nil {
		s.logger.Error("reminder rescheduling failed", "appointment_id", a.ID, "error", err)
	}

	contact := s.contactOf(ctx, a)
	s.notify(ctx, "appointment rescheduled", func() error {
		return s.notifier.AppointmentConfirmed(ctx, a, contact)
	})
	return a, nil
}

// Delete removes the appointment and its reminder. The reminder never
// outlives the appointment.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.reminders.Cancel(ctx, id); err != nil {
		s.logger.Error("reminder cancellation failed", "appointment_id", id, "error", err)
	}
	return s.repo.Delete(ctx, id)
}

// SendReminder sends the reminder email immediately (admin action).
func (s *Service) SendReminder(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	contact := s.contactOf(ctx, a)
	if contact == nil {
		return nil, ErrNotFound
	}
	if err := s.notifier.AppointmentReminder(ctx, a, contact); err != nil {
		return nil, fmt.Errorf("appointments: send reminder: %w", err)
	}
	return a, nil
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns appointments, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *Status) ([]*Appointment, error) {
	return s.repo.List(ctx, status)
}

// Upcoming returns confirmed appointments within the next days.
func (s *Service) Upcoming(ctx context.Context, days int) ([]*Appointment, error) {
	if days <= 0 {
		days = 7
	}
	return s.repo.ListUpcoming(ctx, time.Duration(days)*24*time.Hour)
}

// Stats returns dashboard counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) contactOf(ctx context.Context, a *Appointment) *contacts.Contact {
	c, err := s.contacts.GetByID(ctx, a.ContactID)
	if err != nil {
		s.logger.Error("contact lookup failed", "appointment_id", a.ID, "contact_id", a.ContactID, "error", err)
		return nil
	}
	return c
}

// notify runs a best-effort email send. The transition is already durable, so
// a failure here is logged, never surfaced to the caller.
func (s *Service) notify(ctx context.Context, what string, send func() error) {
	if s.notifier == nil {
		return
	}
	if err := send(); err != nil {
		s.logger.Error("notification failed", "event", what, "error", err)
	}
}
