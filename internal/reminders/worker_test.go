package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/jobqueue"
)

type fakeDispatcher struct {
	sent    []string
	missing map[string]bool
}

func (f *fakeDispatcher) SendReminder(ctx context.Context, appointmentID string) (*appointments.Appointment, error) {
	if f.missing[appointmentID] {
		return nil, appointments.ErrNotFound
	}
	f.sent = append(f.sent, appointmentID)
	return &appointments.Appointment{ID: appointmentID}, nil
}

func TestWorkerSendsDueReminders(t *testing.T) {
	ctx := context.Background()
	queue := jobqueue.NewInMemoryScheduler()
	svc := NewService(NewInMemoryStore(), queue, 24*time.Hour, nil)
	dispatcher := &fakeDispatcher{}
	worker := NewWorker(queue, svc, dispatcher, nil, nil, WorkerConfig{})

	// Due now: scheduledAt is less than the lead time away.
	require.NoError(t, svc.Schedule(ctx, "a-due", time.Now().Add(time.Hour)))
	// Not due: well past the lead time.
	require.NoError(t, svc.Schedule(ctx, "a-later", time.Now().Add(72*time.Hour)))

	require.NoError(t, worker.ProcessBatch(ctx))

	assert.Equal(t, []string{"a-due"}, dispatcher.sent)
	r, err := svc.Get(ctx, "a-due")
	require.NoError(t, err)
	require.NotNil(t, r.SentAt)

	later, err := svc.Get(ctx, "a-later")
	require.NoError(t, err)
	assert.Nil(t, later.SentAt)
}

func TestWorkerSkipsDeletedAppointments(t *testing.T) {
	ctx := context.Background()
	queue := jobqueue.NewInMemoryScheduler()
	svc := NewService(NewInMemoryStore(), queue, 24*time.Hour, nil)
	dispatcher := &fakeDispatcher{missing: map[string]bool{"a-gone": true}}
	worker := NewWorker(queue, svc, dispatcher, nil, nil, WorkerConfig{})

	require.NoError(t, svc.Schedule(ctx, "a-gone", time.Now().Add(time.Hour)))
	require.NoError(t, worker.ProcessBatch(ctx))

	assert.Empty(t, dispatcher.sent)
	_, err := svc.Get(ctx, "a-gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkerBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	queue := jobqueue.NewInMemoryScheduler()
	svc := NewService(NewInMemoryStore(), queue, 24*time.Hour, nil)
	dispatcher := &fakeDispatcher{}
	worker := NewWorker(queue, svc, dispatcher, nil, nil, WorkerConfig{})

	require.NoError(t, svc.Schedule(ctx, "a-1", time.Now().Add(time.Hour)))
	require.NoError(t, worker.ProcessBatch(ctx))
	require.NoError(t, worker.ProcessBatch(ctx))

	// The job was claimed once; the second batch found nothing.
	assert.Equal(t, []string{"a-1"}, dispatcher.sent)
}
