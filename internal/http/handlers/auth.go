package handlers

import (
	"net/http"

	"github.com/systemsmatic/backend/internal/auth"
	"github.com/systemsmatic/backend/internal/http/middleware"
	"github.com/systemsmatic/backend/pkg/logging"
)

// AuthHandler serves backoffice login and the current-user profile.
type AuthHandler struct {
	service *auth.Service
	logger  *logging.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(service *auth.Service, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{service: service, logger: logger}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// Login exchanges credentials for a session JWT.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	token, user, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Profile returns the authenticated user.
// GET /backoffice/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AdminClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "missing session"})
		return
	}

	user, err := h.service.Profile(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
