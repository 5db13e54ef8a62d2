package quotes

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for quote storage.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, id string) (*Quote, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, q *Quote) error
	Stats(ctx context.Context) (*Stats, error)
}

// ContactIndex resolves the contact ids matching a free-text search. The
// Postgres repository joins instead; the in-memory one takes a lookup func.
type ContactIndex func(search string) []string

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	items   map[string]*Quote
	matcher ContactIndex
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*Quote)}
}

// WithContactIndex sets the search helper used by List.
func (r *InMemoryRepository) WithContactIndex(idx ContactIndex) *InMemoryRepository {
	r.matcher = idx
	return r
}

// Create stores a new quote.
func (r *InMemoryRepository) Create(ctx context.Context, q *Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	cp := *q
	r.items[q.ID] = &cp
	return nil
}

// GetByID returns a quote by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

// List returns a page of quotes, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	var matchIDs map[string]bool
	if filter.Search != "" && r.matcher != nil {
		matchIDs = make(map[string]bool)
		for _, id := range r.matcher(strings.TrimSpace(filter.Search)) {
			matchIDs[id] = true
		}
	}

	var all []*Quote
	for _, q := range r.items {
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		if matchIDs != nil && !matchIDs[q.ContactID] {
			continue
		}
		cp := *q
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return &ListResult{
		Quotes: all[start:end],
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}, nil
}

// Update replaces the stored quote.
func (r *InMemoryRepository) Update(ctx context.Context, q *Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[q.ID]; !ok {
		return ErrNotFound
	}
	q.UpdatedAt = time.Now().UTC()
	cp := *q
	r.items[q.ID] = &cp
	return nil
}

// Stats computes dashboard counters.
func (r *InMemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &Stats{}
	for _, q := range r.items {
		s.Total++
		switch q.Status {
		case StatusPending:
			s.Pending++
		case StatusProcessing:
			s.Processing++
		case StatusSent:
			s.Sent++
		case StatusAccepted:
			s.Accepted++
		case StatusRejected:
			s.Rejected++
		case StatusExpired:
			s.Expired++
		}
	}
	return s, nil
}

var _ Repository = (*InMemoryRepository)(nil)
