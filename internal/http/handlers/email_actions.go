package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/systemsmatic/backend/internal/emailactions"
	"github.com/systemsmatic/backend/internal/tokens"
	"github.com/systemsmatic/backend/pkg/logging"
)

// EmailActionsHandler serves the one-click action endpoints the transactional
// emails link to.
type EmailActionsHandler struct {
	service *emailactions.Service
	issuer  *tokens.Issuer
	env     string
	logger  *logging.Logger
}

// NewEmailActionsHandler creates the email actions handler. The issuer only
// backs the development token endpoint.
func NewEmailActionsHandler(service *emailactions.Service, issuer *tokens.Issuer, env string, logger *logging.Logger) *EmailActionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &EmailActionsHandler{service: service, issuer: issuer, env: env, logger: logger}
}

// Routes mounts the email action endpoints.
func (h *EmailActionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/appointments/{appointmentID}/accept", h.AcceptAppointment)
	r.Post("/appointments/{appointmentID}/reject", h.RejectAppointment)
	r.Post("/appointments/{appointmentID}/propose-reschedule", h.ProposeReschedule)
	r.Post("/quotes/{quoteID}/accept", h.AcceptQuote)
	r.Post("/quotes/{quoteID}/reject", h.RejectQuote)
	r.Get("/verify-token/{token}", h.VerifyToken)
	r.Post("/test/create-tokens", h.CreateTestTokens)
	return r
}

type acceptAppointmentPayload struct {
	Token       string     `json:"token"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// AcceptAppointment confirms an appointment from the admin email.
// POST /email-actions/appointments/{appointmentID}/accept
func (h *EmailActionsHandler) AcceptAppointment(w http.ResponseWriter, r *http.Request) {
	var payload acceptAppointmentPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	result, err := h.service.AcceptAppointment(r.Context(), chi.URLParam(r, "appointmentID"), payload.Token, payload.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type rejectAppointmentPayload struct {
	Token  string `json:"token"`
	Reason string `json:"reason,omitempty"`
}

// RejectAppointment cancels an appointment from the admin email.
// POST /email-actions/appointments/{appointmentID}/reject
func (h *EmailActionsHandler) RejectAppointment(w http.ResponseWriter, r *http.Request) {
	var payload rejectAppointmentPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	result, err := h.service.RejectAppointment(r.Context(), chi.URLParam(r, "appointmentID"), payload.Token, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type proposeReschedulePayload struct {
	Token          string    `json:"token"`
	NewScheduledAt time.Time `json:"newScheduledAt"`
}

// ProposeReschedule records a new-date proposal from the admin email.
// POST /email-actions/appointments/{appointmentID}/propose-reschedule
func (h *EmailActionsHandler) ProposeReschedule(w http.ResponseWriter, r *http.Request) {
	var payload proposeReschedulePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if payload.NewScheduledAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "newScheduledAt is required"})
		return
	}

	result, err := h.service.ProposeReschedule(r.Context(), chi.URLParam(r, "appointmentID"), payload.Token, payload.NewScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type acceptQuotePayload struct {
	Token           string     `json:"token"`
	QuoteDocument   *string    `json:"quoteDocument,omitempty"`
	QuoteValidUntil *time.Time `json:"quoteValidUntil,omitempty"`
}

// AcceptQuote accepts a quote from the admin email.
// POST /email-actions/quotes/{quoteID}/accept
func (h *EmailActionsHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	var payload acceptQuotePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	result, err := h.service.AcceptQuote(r.Context(), chi.URLParam(r, "quoteID"), payload.Token, payload.QuoteDocument, payload.QuoteValidUntil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type rejectQuotePayload struct {
	Token           string `json:"token"`
	RejectionReason string `json:"rejectionReason"`
}

// RejectQuote rejects a quote from the admin email.
// POST /email-actions/quotes/{quoteID}/reject
func (h *EmailActionsHandler) RejectQuote(w http.ResponseWriter, r *http.Request) {
	var payload rejectQuotePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	result, err := h.service.RejectQuote(r.Context(), chi.URLParam(r, "quoteID"), payload.Token, payload.RejectionReason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// VerifyToken is the non-consuming preflight behind the action landing pages.
// GET /email-actions/verify-token/{token}
func (h *EmailActionsHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	result := h.service.VerifyToken(r.Context(), chi.URLParam(r, "token"))
	writeJSON(w, http.StatusOK, result)
}

type createTestTokensPayload struct {
	Type     string   `json:"type"`
	EntityID string   `json:"entityId"`
	Actions  []string `json:"actions,omitempty"`
}

// CreateTestTokens mints tokens for manual testing. Disabled in production.
// POST /email-actions/test/create-tokens
func (h *EmailActionsHandler) CreateTestTokens(w http.ResponseWriter, r *http.Request) {
	if h.env == "production" {
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "not available in production"})
		return
	}

	var payload createTestTokensPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	typ := tokens.EntityType(payload.Type)
	if typ != tokens.EntityAppointment && typ != tokens.EntityQuote {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "type must be appointment or quote"})
		return
	}
	actions := payload.Actions
	if len(actions) == 0 {
		actions = []string{tokens.ActionAccept, tokens.ActionReject}
		if typ == tokens.EntityAppointment {
			actions = append(actions, tokens.ActionReschedule)
		}
	}

	out := make(map[string]string, len(actions))
	for _, action := range actions {
		tok, err := h.issuer.Issue(r.Context(), typ, payload.EntityID, action)
		if err != nil {
			writeError(w, err)
			return
		}
		out[action] = tok
	}
	h.logger.Info("test tokens created", "type", payload.Type, "entity_id", payload.EntityID)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "tokens": out})
}
