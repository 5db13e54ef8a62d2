package jobqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is a unit of delayed work: run Payload's job at RunAt.
type Job struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Payload string    `json:"payload"`
	RunAt   time.Time `json:"runAt"`
}

// Scheduler stores delayed jobs and hands back the ones that are due.
// Schedule with an existing ID replaces the job, so rescheduling an entity's
// reminder is a plain re-Schedule.
type Scheduler interface {
	Schedule(ctx context.Context, job Job) (string, error)
	Cancel(ctx context.Context, jobID string) error
	PollDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	Depth(ctx context.Context) (int64, error)
}

// InMemoryScheduler keeps jobs in a map. Test and single-process use.
type InMemoryScheduler struct {
	mu   sync.Mutex
	jobs map[string]Job
}

// NewInMemoryScheduler creates an empty scheduler.
func NewInMemoryScheduler() *InMemoryScheduler {
	return &InMemoryScheduler{jobs: make(map[string]Job)}
}

// Schedule stores the job, replacing any job with the same ID.
func (s *InMemoryScheduler) Schedule(ctx context.Context, job Job) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.RunAt = job.RunAt.UTC()
	s.jobs[job.ID] = job
	return job.ID, nil
}

// Cancel drops the job. Unknown IDs are a no-op.
func (s *InMemoryScheduler) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}

// PollDue removes and returns up to limit jobs with RunAt <= now, soonest
// first. A returned job is owned by the caller.
func (s *InMemoryScheduler) PollDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}

	var due []Job
	for _, j := range s.jobs {
		if !j.RunAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].RunAt.Before(due[k].RunAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	for _, j := range due {
		delete(s.jobs, j.ID)
	}
	return due, nil
}

// Depth returns the number of jobs waiting.
func (s *InMemoryScheduler) Depth(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.jobs)), nil
}

var _ Scheduler = (*InMemoryScheduler)(nil)
