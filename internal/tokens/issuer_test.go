package tokens

import (
	"context"
	"testing"
	"time"
)

func TestIssueGeneratesUniqueHexTokens(t *testing.T) {
	store := NewInMemoryStore()
	issuer := NewIssuer(store, 0, nil)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		tok, err := issuer.Issue(context.Background(), EntityQuote, "Q001", ActionAccept)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if len(tok) != 64 {
			t.Fatalf("expected 64 hex chars (256 bits), got %d", len(tok))
		}
		if seen[tok] {
			t.Fatal("duplicate token issued")
		}
		seen[tok] = true
	}
}

func TestIssuePersistsRecordWithDefaultTTL(t *testing.T) {
	store := NewInMemoryStore()
	issuer := NewIssuer(store, 0, nil)

	before := time.Now().UTC()
	tok, err := issuer.Issue(context.Background(), EntityAppointment, "A001", ActionReschedule)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec, err := store.Get(context.Background(), tok)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.IsUsed {
		t.Error("fresh token must be unused")
	}
	if rec.Type != EntityAppointment || rec.EntityID != "A001" || rec.Action != ActionReschedule {
		t.Errorf("record fields mismatch: %+v", rec)
	}

	wantExpiry := before.Add(DefaultTTL)
	if rec.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || rec.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("expiry %s not within a minute of %s", rec.ExpiresAt, wantExpiry)
	}
}

// Several live tokens may coexist for the same entity and action.
func TestIssueAllowsConcurrentTokensPerEntity(t *testing.T) {
	store := NewInMemoryStore()
	issuer := NewIssuer(store, 0, nil)

	a, err := issuer.Issue(context.Background(), EntityQuote, "Q001", ActionAccept)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := issuer.Issue(context.Background(), EntityQuote, "Q001", ActionAccept)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a == b {
		t.Fatal("tokens for the same entity/action must still be distinct")
	}
}

func TestIssueWithTTL(t *testing.T) {
	store := NewInMemoryStore()
	issuer := NewIssuer(store, 0, nil)

	tok, err := issuer.IssueWithTTL(context.Background(), EntityQuote, "Q001", ActionReject, time.Hour)
	if err != nil {
		t.Fatalf("IssueWithTTL: %v", err)
	}
	rec, err := store.Get(context.Background(), tok)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if until := time.Until(rec.ExpiresAt); until > time.Hour || until < 50*time.Minute {
		t.Errorf("expected ~1h expiry, got %s", until)
	}
}
