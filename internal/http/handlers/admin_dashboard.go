package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/jobqueue"
	"github.com/systemsmatic/backend/internal/mailer"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/pkg/logging"
)

// AdminDashboardHandler aggregates counters for the backoffice landing page
// and exposes the email audit trail and queue health.
type AdminDashboardHandler struct {
	appointments *appointments.Service
	quotes       *quotes.Service
	mailer       *mailer.Service
	queue        jobqueue.Scheduler
	logger       *logging.Logger
}

// NewAdminDashboardHandler creates the dashboard handler.
func NewAdminDashboardHandler(appointmentSvc *appointments.Service, quoteSvc *quotes.Service, mailerSvc *mailer.Service, queue jobqueue.Scheduler, logger *logging.Logger) *AdminDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{
		appointments: appointmentSvc,
		quotes:       quoteSvc,
		mailer:       mailerSvc,
		queue:        queue,
		logger:       logger,
	}
}

// Routes mounts the dashboard endpoints.
func (h *AdminDashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Overview)
	r.Get("/emails", h.EmailLog)
	r.Get("/queue", h.QueueHealth)
	return r
}

// DashboardOverview is the backoffice landing payload.
type DashboardOverview struct {
	Appointments *appointments.Stats `json:"appointments"`
	Quotes       *quotes.Stats       `json:"quotes"`
}

// Overview returns both stat blocks in one round trip.
// GET /backoffice/dashboard
func (h *AdminDashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	appointmentStats, err := h.appointments.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	quoteStats, err := h.quotes.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardOverview{Appointments: appointmentStats, Quotes: quoteStats})
}

// EmailLog returns the most recent outbound emails (?limit=, default 50).
// GET /backoffice/dashboard/emails
func (h *AdminDashboardHandler) EmailLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.mailer.Logs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emails": logs, "total": len(logs)})
}

// QueueHealth reports the reminder queue depth.
// GET /backoffice/dashboard/queue
func (h *AdminDashboardHandler) QueueHealth(w http.ResponseWriter, r *http.Request) {
	depth, err := h.queue.Depth(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminderQueueDepth": depth})
}
