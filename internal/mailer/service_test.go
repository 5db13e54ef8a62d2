package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/internal/tokens"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	fail bool
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("provider down")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func newTestMailer(t *testing.T) (*Service, *recordingSender, tokens.Store) {
	t.Helper()
	sender := &recordingSender{}
	store := tokens.NewInMemoryStore()
	issuer := tokens.NewIssuer(store, 0, nil)
	svc := NewService(sender, NewInMemoryLogStore(), issuer, Config{
		PublicBaseURL: "https://systemsmatic.example.com/",
		AdminEmail:    "contact@systemsmatic.example.com",
	}, nil, nil)
	return svc, sender, store
}

func testContact() *contacts.Contact {
	return &contacts.Contact{
		ID:        "c-1",
		FirstName: "Marie",
		LastName:  "Lurel",
		Email:     "marie.lurel@example.com",
		Phone:     "+590690123456",
	}
}

func extractToken(t *testing.T, html, action string) string {
	t.Helper()
	marker := "/" + action + "?token="
	i := strings.Index(html, marker)
	require.GreaterOrEqual(t, i, 0, "no %s link in email", action)
	rest := html[i+len(marker):]
	end := strings.IndexAny(rest, `"&`)
	require.Greater(t, end, 0)
	return rest[:end]
}

func TestAppointmentReceivedCarriesThreeActionLinks(t *testing.T) {
	svc, sender, store := newTestMailer(t)
	ctx := context.Background()

	a := &appointments.Appointment{ID: "a-1", Reason: appointments.ReasonMaintenance, Message: "Clim en panne"}
	require.NoError(t, svc.AppointmentReceived(ctx, a, testContact()))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "contact@systemsmatic.example.com", msg.To)
	assert.Contains(t, msg.Subject, "Marie Lurel")
	assert.Contains(t, msg.HTML, "https://systemsmatic.example.com/email-actions/appointments/a-1/accept?token=")

	for _, action := range []string{"accept", "reject", "reschedule"} {
		raw := extractToken(t, msg.HTML, action)
		assert.Len(t, raw, 64)
		tok, err := store.Get(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, tokens.EntityAppointment, tok.Type)
		assert.Equal(t, "a-1", tok.EntityID)
		assert.Equal(t, action, tok.Action)
	}
}

func TestRescheduleProposedIssuesFreshTokens(t *testing.T) {
	svc, sender, store := newTestMailer(t)
	ctx := context.Background()

	a := &appointments.Appointment{ID: "a-2"}
	at := time.Date(2026, time.March, 3, 18, 30, 0, 0, time.UTC)
	require.NoError(t, svc.RescheduleProposed(ctx, a, testContact(), at))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "marie.lurel@example.com", msg.To)
	// 18:30 UTC is 14:30 in Guadeloupe (UTC-4).
	assert.Contains(t, msg.HTML, "mardi 3 mars 2026 à 14h30")

	for _, action := range []string{"accept", "reject"} {
		raw := extractToken(t, msg.HTML, action)
		tok, err := store.Get(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, "a-2", tok.EntityID)
	}
}

func TestQuoteReceivedSendsAdminAndClientEmails(t *testing.T) {
	svc, sender, _ := newTestMailer(t)
	ctx := context.Background()

	q := &quotes.Quote{ID: "q-1", ProjectDescription: "Installation split"}
	require.NoError(t, svc.QuoteReceived(ctx, q, testContact()))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "contact@systemsmatic.example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "/email-actions/quotes/q-1/accept?token=")
	assert.Equal(t, "marie.lurel@example.com", sender.sent[1].To)
	assert.Contains(t, sender.sent[1].HTML, "bien reçu votre demande de devis")
}

func TestQuoteAcceptedIncludesDocumentAndValidity(t *testing.T) {
	svc, sender, _ := newTestMailer(t)
	ctx := context.Background()

	doc := "https://files.example.com/devis-42.pdf"
	until := time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)
	q := &quotes.Quote{ID: "q-2", QuoteDocument: &doc, QuoteValidUntil: &until}
	require.NoError(t, svc.QuoteAccepted(ctx, q, testContact()))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, doc)
	assert.Contains(t, sender.sent[0].HTML, "15 avril 2026")
}

func TestQuoteRejectedIncludesReason(t *testing.T) {
	svc, sender, _ := newTestMailer(t)
	ctx := context.Background()

	reason := "Hors zone d'intervention"
	q := &quotes.Quote{ID: "q-3", RejectionReason: &reason}
	require.NoError(t, svc.QuoteRejected(ctx, q, testContact()))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, reason)
}

func TestSendOutcomeIsLogged(t *testing.T) {
	svc, sender, _ := newTestMailer(t)
	ctx := context.Background()

	a := &appointments.Appointment{ID: "a-3"}
	require.NoError(t, svc.AppointmentCancelled(ctx, a, testContact()))

	sender.fail = true
	err := svc.AppointmentCancelled(ctx, a, testContact())
	require.Error(t, err)

	logs, err := svc.Logs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// Newest first.
	assert.Equal(t, LogStatusFailed, logs[0].Status)
	require.NotNil(t, logs[0].Error)
	assert.Nil(t, logs[0].SentAt)
	assert.Equal(t, LogStatusSent, logs[1].Status)
	require.NotNil(t, logs[1].SentAt)
}

func TestRetrySenderRecovers(t *testing.T) {
	attempts := 0
	flaky := senderFunc(func(ctx context.Context, msg EmailMessage) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("attempt %d failed", attempts)
		}
		return nil
	})

	retry := NewRetrySender(flaky, 10*time.Second, nil)
	retry.initialInterval = time.Millisecond

	err := retry.Send(context.Background(), EmailMessage{To: "x@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrySenderHonorsContext(t *testing.T) {
	flaky := senderFunc(func(ctx context.Context, msg EmailMessage) error {
		return errors.New("always failing")
	})

	retry := NewRetrySender(flaky, time.Minute, nil)
	retry.initialInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := retry.Send(ctx, EmailMessage{To: "x@example.com"})
	require.Error(t, err)
}

type senderFunc func(ctx context.Context, msg EmailMessage) error

func (f senderFunc) Send(ctx context.Context, msg EmailMessage) error { return f(ctx, msg) }
