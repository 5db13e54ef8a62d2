package tokens

import "errors"

// Sentinel errors for token verification. The messages are surfaced verbatim to
// API callers, which is why they are in French like the rest of the user-facing
// strings.
var (
	// ErrInvalidToken is returned when no token record matches the string.
	ErrInvalidToken = errors.New("Token invalide")

	// ErrUsedToken is returned when the token has already been consumed.
	ErrUsedToken = errors.New("Token déjà utilisé")

	// ErrExpiredToken is returned when the token is past its expiry, whether or
	// not it was ever consumed.
	ErrExpiredToken = errors.New("Token expiré")
)
