package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists action tokens.
//
// Consume must be atomic: under concurrent calls for the same token exactly one
// succeeds and the rest fail with ErrUsedToken. Tokens are never deleted.
type Store interface {
	Create(ctx context.Context, t *ActionToken) error
	Get(ctx context.Context, token string) (*ActionToken, error)
	Consume(ctx context.Context, token string, now time.Time) (*ActionToken, error)
}

// InMemoryStore keeps tokens in a mutex-guarded map. Used in tests and as a
// stand-in when no database is configured.
type InMemoryStore struct {
	mu    sync.Mutex
	byStr map[string]*ActionToken
}

// NewInMemoryStore creates an empty in-memory token store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byStr: make(map[string]*ActionToken)}
}

// Create stores a new token record.
func (s *InMemoryStore) Create(ctx context.Context, t *ActionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := *t
	s.byStr[t.Token] = &cp
	return nil
}

// Get returns the token record or ErrInvalidToken.
func (s *InMemoryStore) Get(ctx context.Context, token string) (*ActionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byStr[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	cp := *rec
	return &cp, nil
}

// Consume flips is_used exactly once and returns the pre-update snapshot.
// Expiry is checked before the used flag so an expired token reports
// ErrExpiredToken no matter how often it was presented.
func (s *InMemoryStore) Consume(ctx context.Context, token string, now time.Time) (*ActionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byStr[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	if !rec.ExpiresAt.After(now) {
		return nil, ErrExpiredToken
	}
	if rec.IsUsed {
		return nil, ErrUsedToken
	}

	snapshot := *rec
	snapshot.IsUsed = false
	snapshot.UsedAt = nil

	used := now
	rec.IsUsed = true
	rec.UsedAt = &used
	return &snapshot, nil
}

var _ Store = (*InMemoryStore)(nil)
