package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/jobqueue"
	"github.com/systemsmatic/backend/internal/observability/metrics"
	"github.com/systemsmatic/backend/pkg/logging"
)

// Dispatcher sends the reminder email for one appointment.
type Dispatcher interface {
	SendReminder(ctx context.Context, appointmentID string) (*appointments.Appointment, error)
}

// Worker drains due reminder jobs from the queue and dispatches the emails.
type Worker struct {
	queue      jobqueue.Scheduler
	service    *Service
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *logging.Logger
	pollPeriod time.Duration
	batchSize  int
}

// WorkerConfig tunes the polling loop.
type WorkerConfig struct {
	PollPeriod time.Duration
	BatchSize  int
}

// NewWorker wires the reminder worker.
func NewWorker(queue jobqueue.Scheduler, service *Service, dispatcher Dispatcher, m *metrics.Metrics, logger *logging.Logger, cfg WorkerConfig) *Worker {
	if cfg.PollPeriod <= 0 {
		cfg.PollPeriod = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:      queue,
		service:    service,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		pollPeriod: cfg.PollPeriod,
		batchSize:  cfg.BatchSize,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	w.logger.Info("reminder worker started", "poll_period", w.pollPeriod)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopping")
			return
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error("reminder batch failed", "error", err)
			}
		}
	}
}

// ProcessBatch claims due jobs and sends their reminders. One failing job is
// logged and skipped; it does not block the rest of the batch.
func (w *Worker) ProcessBatch(ctx context.Context) error {
	now := time.Now().UTC()
	jobs, err := w.queue.PollDue(ctx, now, w.batchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		appointmentID := job.Payload
		if _, err := w.dispatcher.SendReminder(ctx, appointmentID); err != nil {
			if errors.Is(err, appointments.ErrNotFound) {
				// Appointment deleted after its reminder was queued.
				_ = w.service.store.DeleteByAppointmentID(ctx, appointmentID)
				continue
			}
			w.logger.Error("reminder dispatch failed", "appointment_id", appointmentID, "error", err)
			continue
		}
		if err := w.service.MarkSent(ctx, appointmentID, now); err != nil && !errors.Is(err, ErrNotFound) {
			w.logger.Error("reminder mark sent failed", "appointment_id", appointmentID, "error", err)
		}
		w.logger.Info("reminder sent", "appointment_id", appointmentID)
	}

	if depth, err := w.queue.Depth(ctx); err == nil {
		w.metrics.SetReminderQueueDepth(float64(depth))
	}
	return nil
}
