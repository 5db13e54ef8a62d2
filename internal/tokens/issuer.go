package tokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/systemsmatic/backend/pkg/logging"
)

// DefaultTTL is how long an action token stays valid unless overridden.
const DefaultTTL = 24 * time.Hour

// Issuer mints single-use action tokens.
type Issuer struct {
	store  Store
	ttl    time.Duration
	logger *logging.Logger
}

// NewIssuer creates an issuer with the given default TTL. ttl <= 0 falls back
// to DefaultTTL.
func NewIssuer(store Store, ttl time.Duration, logger *logging.Logger) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Issuer{store: store, ttl: ttl, logger: logger}
}

// Issue persists a new token for the given entity and action using the default
// TTL and returns the opaque token string. Callers embed it in notification
// links; issuing has no other side effect.
func (i *Issuer) Issue(ctx context.Context, typ EntityType, entityID, action string) (string, error) {
	return i.IssueWithTTL(ctx, typ, entityID, action, i.ttl)
}

// IssueWithTTL is Issue with an explicit validity window.
func (i *Issuer) IssueWithTTL(ctx context.Context, typ EntityType, entityID, action string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.ttl
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	rec := &ActionToken{
		Token:     token,
		Type:      typ,
		EntityID:  entityID,
		Action:    action,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := i.store.Create(ctx, rec); err != nil {
		return "", err
	}

	i.logger.Debug("action token issued",
		"type", string(typ),
		"entity_id", entityID,
		"action", action,
		"expires_at", rec.ExpiresAt,
	)
	return token, nil
}

// generateToken returns 256 bits of crypto randomness, hex encoded.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tokens: entropy source failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
