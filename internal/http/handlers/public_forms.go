package handlers

import (
	"net/http"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/pkg/logging"
)

// PublicHandler serves the website forms: booking requests and quote
// requests.
type PublicHandler struct {
	appointments *appointments.Service
	quotes       *quotes.Service
	logger       *logging.Logger
}

// NewPublicHandler creates the public forms handler.
func NewPublicHandler(appointmentSvc *appointments.Service, quoteSvc *quotes.Service, logger *logging.Logger) *PublicHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PublicHandler{appointments: appointmentSvc, quotes: quoteSvc, logger: logger}
}

// CreateAppointment handles the booking form.
// POST /appointments
func (h *PublicHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointments.CreateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	a, err := h.appointments.CreateRequest(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// CreateQuote handles the quote request form.
// POST /quotes
func (h *PublicHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req quotes.CreateQuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	q, err := h.quotes.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// Health reports liveness.
// GET /health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
