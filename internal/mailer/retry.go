package mailer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/systemsmatic/backend/pkg/logging"
)

// RetrySender wraps an EmailSender with exponential backoff. Transactional
// emails go out once from the request path, so transient provider errors are
// retried here rather than surfaced to the caller.
type RetrySender struct {
	inner           EmailSender
	initialInterval time.Duration
	maxElapsedTime  time.Duration
	logger          *logging.Logger
}

// NewRetrySender wraps sender with retries. maxElapsed bounds the total time
// spent on one message, attempts included.
func NewRetrySender(sender EmailSender, maxElapsed time.Duration, logger *logging.Logger) *RetrySender {
	if logger == nil {
		logger = logging.Default()
	}
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	return &RetrySender{
		inner:           sender,
		initialInterval: 500 * time.Millisecond,
		maxElapsedTime:  maxElapsed,
		logger:          logger,
	}
}

// Send delivers the message, retrying with exponential backoff until it
// succeeds, the context is cancelled, or the elapsed budget runs out.
func (s *RetrySender) Send(ctx context.Context, msg EmailMessage) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.inner.Send(ctx, msg)
		if err != nil && attempt > 1 {
			s.logger.Warn("email send retry failed", "attempt", attempt, "to", msg.To, "error", err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval
	b.MaxElapsedTime = s.maxElapsedTime

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

var _ EmailSender = (*RetrySender)(nil)
