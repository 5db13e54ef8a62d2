package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/pkg/logging"
)

// AdminQuotesHandler serves the backoffice quote endpoints.
type AdminQuotesHandler struct {
	service *quotes.Service
	logger  *logging.Logger
}

// NewAdminQuotesHandler creates the backoffice quotes handler.
func NewAdminQuotesHandler(service *quotes.Service, logger *logging.Logger) *AdminQuotesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminQuotesHandler{service: service, logger: logger}
}

// Routes mounts the quote endpoints.
func (h *AdminQuotesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/{quoteID}", h.Get)
	r.Patch("/{quoteID}", h.Update)
	r.Patch("/{quoteID}/status", h.UpdateStatus)
	return r
}

// List returns a filtered page of quotes. Supports ?page=, ?limit=, ?status=
// and ?search= over the contact's name and email.
// GET /backoffice/quotes
func (h *AdminQuotesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := quotes.ListFilter{Search: q.Get("search")}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if raw := q.Get("status"); raw != "" {
		s := quotes.Status(raw)
		if !s.Valid() {
			writeError(w, quotes.ErrInvalidStatus)
			return
		}
		filter.Status = &s
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Stats returns the dashboard counters.
// GET /backoffice/quotes/stats
func (h *AdminQuotesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Get returns one quote.
// GET /backoffice/quotes/{quoteID}
func (h *AdminQuotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Update applies a partial admin edit.
// PATCH /backoffice/quotes/{quoteID}
func (h *AdminQuotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var params quotes.UpdateParams
	if err := decodeJSON(r, &params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	q, err := h.service.Update(r.Context(), chi.URLParam(r, "quoteID"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// UpdateStatus applies an admin status change through the status machine.
// PATCH /backoffice/quotes/{quoteID}/status
func (h *AdminQuotesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var params quotes.UpdateStatusParams
	if err := decodeJSON(r, &params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	q, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "quoteID"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
