package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/auth"
	"github.com/systemsmatic/backend/internal/emailactions"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/internal/tokens"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON strictly decodes the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeError maps domain errors to HTTP statuses. Token failures answer with
// their French message so the action page can show it as is.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tokens.ErrInvalidToken),
		errors.Is(err, tokens.ErrUsedToken),
		errors.Is(err, tokens.ErrExpiredToken),
		errors.Is(err, emailactions.ErrTokenMismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})

	case errors.Is(err, appointments.ErrNotFound),
		errors.Is(err, quotes.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})

	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: err.Error()})

	case errors.Is(err, appointments.ErrMissingName),
		errors.Is(err, appointments.ErrMissingEmail),
		errors.Is(err, appointments.ErrConsentRequired),
		errors.Is(err, appointments.ErrInvalidStatus),
		errors.Is(err, quotes.ErrMissingName),
		errors.Is(err, quotes.ErrMissingEmail),
		errors.Is(err, quotes.ErrMissingMessage),
		errors.Is(err, quotes.ErrTermsRequired),
		errors.Is(err, quotes.ErrMissingReason),
		errors.Is(err, quotes.ErrInvalidStatus),
		errors.Is(err, quotes.ErrIllegalTransition):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})

	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}
