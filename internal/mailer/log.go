package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EmailLog records one outbound email attempt for the backoffice audit trail.
type EmailLog struct {
	ID        string     `json:"id"`
	To        string     `json:"to"`
	Subject   string     `json:"subject"`
	Template  string     `json:"template"`
	Status    string     `json:"status"` // SENT or FAILED
	Error     *string    `json:"error,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

const (
	LogStatusSent   = "SENT"
	LogStatusFailed = "FAILED"
)

// LogStore persists the email audit trail.
type LogStore interface {
	Record(ctx context.Context, entry *EmailLog) error
	List(ctx context.Context, limit int) ([]*EmailLog, error)
}

// InMemoryLogStore keeps email logs in memory, newest first.
type InMemoryLogStore struct {
	mu      sync.RWMutex
	entries []*EmailLog
}

// NewInMemoryLogStore creates an empty in-memory log store.
func NewInMemoryLogStore() *InMemoryLogStore {
	return &InMemoryLogStore{}
}

// Record appends an entry.
func (s *InMemoryLogStore) Record(ctx context.Context, entry *EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	cp := *entry
	s.entries = append([]*EmailLog{&cp}, s.entries...)
	return nil
}

// List returns up to limit entries, newest first.
func (s *InMemoryLogStore) List(ctx context.Context, limit int) ([]*EmailLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]*EmailLog, limit)
	for i := 0; i < limit; i++ {
		cp := *s.entries[i]
		out[i] = &cp
	}
	return out, nil
}

var _ LogStore = (*InMemoryLogStore)(nil)
