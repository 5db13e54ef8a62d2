package tokens

import (
	"context"
	"time"
)

// Verifier validates and consumes action tokens.
type Verifier struct {
	store Store
}

// NewVerifier creates a verifier over the given store.
func NewVerifier(store Store) *Verifier {
	return &Verifier{store: store}
}

// VerifyAndConsume atomically marks the token used and returns its pre-update
// record. It fails with ErrInvalidToken, ErrExpiredToken or ErrUsedToken; the
// store guarantees at most one successful consumption per token.
func (v *Verifier) VerifyAndConsume(ctx context.Context, token string) (*ActionToken, error) {
	return v.store.Consume(ctx, token, time.Now().UTC())
}

// PeekResult reports whether a token is still usable, for "is this link still
// valid" UI checks.
type PeekResult struct {
	Valid  bool   `json:"valid"`
	Type   string `json:"type,omitempty"`
	Action string `json:"action,omitempty"`
}

// Peek inspects a token without consuming it. Lookup failures of any kind
// collapse into {valid:false}.
func (v *Verifier) Peek(ctx context.Context, token string) PeekResult {
	rec, err := v.store.Get(ctx, token)
	if err != nil {
		return PeekResult{Valid: false}
	}
	if rec.IsUsed || !rec.ExpiresAt.After(time.Now().UTC()) {
		return PeekResult{Valid: false}
	}
	return PeekResult{Valid: true, Type: string(rec.Type), Action: rec.Action}
}
