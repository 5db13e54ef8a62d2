package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/systemsmatic/backend/internal/jobqueue"
	"github.com/systemsmatic/backend/pkg/logging"
)

// DefaultLeadTime is how long before the appointment the reminder fires.
const DefaultLeadTime = 24 * time.Hour

const jobKindReminder = "appointment_reminder"

// Service keeps each appointment's reminder row and its queued job in sync.
// It implements the scheduling interface the appointment service depends on.
type Service struct {
	store    Store
	queue    jobqueue.Scheduler
	leadTime time.Duration
	logger   *logging.Logger
}

// NewService wires the reminder service. leadTime <= 0 falls back to
// DefaultLeadTime.
func NewService(store Store, queue jobqueue.Scheduler, leadTime time.Duration, logger *logging.Logger) *Service {
	if leadTime <= 0 {
		leadTime = DefaultLeadTime
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, queue: queue, leadTime: leadTime, logger: logger}
}

// Schedule (re)creates the appointment's reminder for scheduledAt minus the
// lead time. A previously queued job is cancelled first so the appointment
// never has two pending reminders.
func (s *Service) Schedule(ctx context.Context, appointmentID string, scheduledAt time.Time) error {
	dueAt := scheduledAt.UTC().Add(-s.leadTime)

	if existing, err := s.store.GetByAppointmentID(ctx, appointmentID); err == nil && existing.ProviderRef != nil {
		if err := s.queue.Cancel(ctx, *existing.ProviderRef); err != nil {
			s.logger.Error("stale reminder job cancel failed", "appointment_id", appointmentID, "error", err)
		}
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	jobID, err := s.queue.Schedule(ctx, jobqueue.Job{
		Kind:    jobKindReminder,
		Payload: appointmentID,
		RunAt:   dueAt,
	})
	if err != nil {
		return fmt.Errorf("reminders: enqueue: %w", err)
	}

	r := &Reminder{
		AppointmentID: appointmentID,
		DueAt:         dueAt,
		ProviderRef:   &jobID,
	}
	if err := s.store.Upsert(ctx, r); err != nil {
		// The job will fire with no matching row; the worker tolerates that.
		return err
	}

	s.logger.Info("reminder scheduled", "appointment_id", appointmentID, "due_at", dueAt)
	return nil
}

// Cancel drops the appointment's reminder and its queued job. Unknown
// appointments are a no-op.
func (s *Service) Cancel(ctx context.Context, appointmentID string) error {
	r, err := s.store.GetByAppointmentID(ctx, appointmentID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if r.ProviderRef != nil {
		if err := s.queue.Cancel(ctx, *r.ProviderRef); err != nil {
			s.logger.Error("reminder job cancel failed", "appointment_id", appointmentID, "error", err)
		}
	}
	if err := s.store.DeleteByAppointmentID(ctx, appointmentID); err != nil {
		return err
	}
	s.logger.Info("reminder cancelled", "appointment_id", appointmentID)
	return nil
}

// Get returns the appointment's reminder.
func (s *Service) Get(ctx context.Context, appointmentID string) (*Reminder, error) {
	return s.store.GetByAppointmentID(ctx, appointmentID)
}

// MarkSent stamps the reminder as delivered.
func (s *Service) MarkSent(ctx context.Context, appointmentID string, at time.Time) error {
	return s.store.MarkSent(ctx, appointmentID, at)
}
