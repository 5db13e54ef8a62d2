package reminders

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no reminder exists for an appointment.
var ErrNotFound = errors.New("reminder not found")

// Store persists reminders. One reminder per appointment.
type Store interface {
	Upsert(ctx context.Context, r *Reminder) error
	GetByAppointmentID(ctx context.Context, appointmentID string) (*Reminder, error)
	MarkSent(ctx context.Context, appointmentID string, at time.Time) error
	DeleteByAppointmentID(ctx context.Context, appointmentID string) error
}

// InMemoryStore keeps reminders keyed by appointment ID.
type InMemoryStore struct {
	mu            sync.RWMutex
	byAppointment map[string]*Reminder
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byAppointment: make(map[string]*Reminder)}
}

// Upsert creates or replaces the appointment's reminder.
func (s *InMemoryStore) Upsert(ctx context.Context, r *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.byAppointment[r.AppointmentID]; ok {
		r.ID = existing.ID
		r.CreatedAt = existing.CreatedAt
	} else {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	cp := *r
	s.byAppointment[r.AppointmentID] = &cp
	return nil
}

// GetByAppointmentID returns the appointment's reminder.
func (s *InMemoryStore) GetByAppointmentID(ctx context.Context, appointmentID string) (*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byAppointment[appointmentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// MarkSent stamps the reminder as sent.
func (s *InMemoryStore) MarkSent(ctx context.Context, appointmentID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byAppointment[appointmentID]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	r.SentAt = &at
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteByAppointmentID removes the appointment's reminder. Missing rows are
// a no-op.
func (s *InMemoryStore) DeleteByAppointmentID(ctx context.Context, appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byAppointment, appointmentID)
	return nil
}

var _ Store = (*InMemoryStore)(nil)
