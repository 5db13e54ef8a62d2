package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestToken(t *testing.T, store Store, expiresIn time.Duration) *ActionToken {
	t.Helper()
	rec := &ActionToken{
		Token:     "tok-" + t.Name(),
		Type:      EntityAppointment,
		EntityID:  "A001",
		Action:    ActionAccept,
		ExpiresAt: time.Now().UTC().Add(expiresIn),
	}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return rec
}

func TestConsumeHappyPath(t *testing.T) {
	store := NewInMemoryStore()
	rec := newTestToken(t, store, time.Hour)

	got, err := store.Consume(context.Background(), rec.Token, time.Now().UTC())
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got.IsUsed || got.UsedAt != nil {
		t.Error("Consume must return the pre-update snapshot")
	}
	if got.EntityID != "A001" || got.Type != EntityAppointment || got.Action != ActionAccept {
		t.Errorf("snapshot fields mismatch: %+v", got)
	}

	stored, err := store.Get(context.Background(), rec.Token)
	if err != nil {
		t.Fatalf("Get after consume: %v", err)
	}
	if !stored.IsUsed || stored.UsedAt == nil {
		t.Error("stored record must be marked used")
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	store := NewInMemoryStore()
	if _, err := store.Consume(context.Background(), "nope", time.Now().UTC()); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestConsumeTwiceFailsWithUsedToken(t *testing.T) {
	store := NewInMemoryStore()
	rec := newTestToken(t, store, time.Hour)

	if _, err := store.Consume(context.Background(), rec.Token, time.Now().UTC()); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	if _, err := store.Consume(context.Background(), rec.Token, time.Now().UTC()); !errors.Is(err, ErrUsedToken) {
		t.Errorf("expected ErrUsedToken, got %v", err)
	}
}

func TestConsumeExpiredToken(t *testing.T) {
	store := NewInMemoryStore()
	rec := newTestToken(t, store, -time.Minute)

	if _, err := store.Consume(context.Background(), rec.Token, time.Now().UTC()); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

// An expired token reports expiry even after it was consumed.
func TestExpiryWinsOverUsed(t *testing.T) {
	store := NewInMemoryStore()
	rec := newTestToken(t, store, time.Minute)

	now := time.Now().UTC()
	if _, err := store.Consume(context.Background(), rec.Token, now); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	later := now.Add(2 * time.Minute)
	if _, err := store.Consume(context.Background(), rec.Token, later); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken after expiry, got %v", err)
	}
}

func TestConcurrentConsumeExactlyOneWinner(t *testing.T) {
	store := NewInMemoryStore()
	rec := newTestToken(t, store, time.Hour)

	const n = 50
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Consume(context.Background(), rec.Token, time.Now().UTC())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, used int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrUsedToken):
			used++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 successful consume, got %d", successes)
	}
	if used != n-1 {
		t.Errorf("expected %d ErrUsedToken failures, got %d", n-1, used)
	}
}
