package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/services"

	"github.com/go-chi/chi/v5"
)

// EventHandler handles event listing and moderation requests
type EventHandler struct {
	events services.EventServiceInterface
	logger *slog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events services.EventServiceInterface, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{events: events, logger: logger}
}

// eventResponse adds the derived sold count to an event
type eventResponse struct {
	*models.Event
	SoldTickets int `json:"sold_tickets"`
}

func newEventResponse(e *models.Event) eventResponse {
	return eventResponse{Event: e, SoldTickets: e.SoldTickets()}
}

// List handles GET /api/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	events, err := h.events.ListUpcoming(r.Context(), limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResponse(e))
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"events": out})
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", newEventResponse(event))
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EventCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), &req, middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "Event created successfully", newEventResponse(event))
}

// Cancel handles PUT /api/events/{id}/cancel
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Cancel(r.Context(), chi.URLParam(r, "id"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Event cancelled successfully", newEventResponse(event))
}

// Validate handles PUT /api/admin/events/{id}/validate
func (h *EventHandler) Validate(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Validate(r.Context(), chi.URLParam(r, "id"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Event validated successfully", newEventResponse(event))
}

// Reject handles PUT /api/admin/events/{id}/reject
func (h *EventHandler) Reject(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Reject(r.Context(), chi.URLParam(r, "id"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Event rejected", newEventResponse(event))
}

// AuditTrail handles GET /api/admin/events/{id}/audit
func (h *EventHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	entries, err := h.events.AuditTrail(r.Context(), chi.URLParam(r, "id"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"entries": entries})
}
