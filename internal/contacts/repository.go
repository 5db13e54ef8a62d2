package contacts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrContactNotFound is returned when a contact is not found.
var ErrContactNotFound = errors.New("contact not found")

// Repository defines the interface for contact storage.
type Repository interface {
	// Upsert creates the contact or refreshes name/phone on the existing row
	// with the same email.
	Upsert(ctx context.Context, c *Contact) (*Contact, error)
	GetByID(ctx context.Context, id string) (*Contact, error)
}

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Contact
	byEmail map[string]string
}

// NewInMemoryRepository creates an empty in-memory contact repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*Contact),
		byEmail: make(map[string]string),
	}
}

// Upsert creates or refreshes a contact keyed by email.
func (r *InMemoryRepository) Upsert(ctx context.Context, c *Contact) (*Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(c.Email))
	now := time.Now().UTC()

	if id, ok := r.byEmail[email]; ok {
		existing := r.byID[id]
		existing.FirstName = c.FirstName
		existing.LastName = c.LastName
		existing.Phone = c.Phone
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	created := *c
	created.ID = uuid.NewString()
	created.Email = email
	created.CreatedAt = now
	created.UpdatedAt = now
	r.byID[created.ID] = &created
	r.byEmail[email] = created.ID
	cp := created
	return &cp, nil
}

// GetByID returns a contact by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

var _ Repository = (*InMemoryRepository)(nil)
