package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/pkg/logging"
)

// AdminAppointmentsHandler serves the backoffice appointment endpoints.
type AdminAppointmentsHandler struct {
	service *appointments.Service
	logger  *logging.Logger
}

// NewAdminAppointmentsHandler creates the backoffice appointments handler.
func NewAdminAppointmentsHandler(service *appointments.Service, logger *logging.Logger) *AdminAppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{service: service, logger: logger}
}

// Routes mounts the appointment endpoints.
func (h *AdminAppointmentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/pending", h.ListPending)
	r.Get("/upcoming", h.ListUpcoming)
	r.Get("/stats", h.Stats)
	r.Get("/{appointmentID}", h.Get)
	r.Patch("/{appointmentID}/status", h.UpdateStatus)
	r.Post("/{appointmentID}/reschedule", h.Reschedule)
	r.Post("/{appointmentID}/propose-reschedule", h.ProposeReschedule)
	r.Post("/{appointmentID}/send-reminder", h.SendReminder)
	r.Delete("/{appointmentID}", h.Delete)
	return r
}

// List returns appointments, optionally filtered by ?status=.
// GET /backoffice/appointments
func (h *AdminAppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *appointments.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := appointments.Status(raw)
		if !s.Valid() {
			writeError(w, appointments.ErrInvalidStatus)
			return
		}
		status = &s
	}

	list, err := h.service.List(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list, "total": len(list)})
}

// ListPending returns the requests awaiting a decision.
// GET /backoffice/appointments/pending
func (h *AdminAppointmentsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending := appointments.StatusPending
	list, err := h.service.List(r.Context(), &pending)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list, "total": len(list)})
}

// ListUpcoming returns confirmed appointments within ?days= (default 7).
// GET /backoffice/appointments/upcoming
func (h *AdminAppointmentsHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	list, err := h.service.Upcoming(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list, "total": len(list)})
}

// Stats returns the dashboard counters.
// GET /backoffice/appointments/stats
func (h *AdminAppointmentsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Get returns one appointment.
// GET /backoffice/appointments/{appointmentID}
func (h *AdminAppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateStatus applies an admin status change.
// PATCH /backoffice/appointments/{appointmentID}/status
func (h *AdminAppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var params appointments.UpdateStatusParams
	if err := decodeJSON(r, &params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	a, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "appointmentID"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type reschedulePayload struct {
	ScheduledAt time.Time `json:"scheduledAt"`
}

// Reschedule moves the appointment to a new date directly.
// POST /backoffice/appointments/{appointmentID}/reschedule
func (h *AdminAppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var payload reschedulePayload
	if err := decodeJSON(r, &payload); err != nil || payload.ScheduledAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "scheduledAt is required"})
		return
	}

	a, err := h.service.Reschedule(r.Context(), chi.URLParam(r, "appointmentID"), payload.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type adminProposePayload struct {
	NewScheduledAt time.Time `json:"newScheduledAt"`
}

// ProposeReschedule emails the client a new-date proposal.
// POST /backoffice/appointments/{appointmentID}/propose-reschedule
func (h *AdminAppointmentsHandler) ProposeReschedule(w http.ResponseWriter, r *http.Request) {
	var payload adminProposePayload
	if err := decodeJSON(r, &payload); err != nil || payload.NewScheduledAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "newScheduledAt is required"})
		return
	}

	a, err := h.service.ProposeReschedule(r.Context(), chi.URLParam(r, "appointmentID"), payload.NewScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SendReminder sends the reminder email immediately.
// POST /backoffice/appointments/{appointmentID}/send-reminder
func (h *AdminAppointmentsHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.SendReminder(r.Context(), chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointment": a})
}

// Delete removes the appointment and its reminder.
// DELETE /backoffice/appointments/{appointmentID}
func (h *AdminAppointmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "appointmentID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
