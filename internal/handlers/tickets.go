package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/services"

	"github.com/go-chi/chi/v5"
)

// TicketHandler handles ticket purchase, check-in and management requests
type TicketHandler struct {
	tickets services.TicketServiceInterface
	logger  *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets services.TicketServiceInterface, logger *slog.Logger) *TicketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketHandler{tickets: tickets, logger: logger}
}

// Purchase handles POST /api/tickets/purchase
func (h *TicketHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req services.PurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.tickets.Purchase(r.Context(), &req, middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "Ticket purchased successfully", result)
}

// Validate handles GET /api/tickets/validate/{ticketNumber}/{validationCode}
func (h *TicketHandler) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.tickets.CheckIn(r.Context(),
		chi.URLParam(r, "ticketNumber"),
		chi.URLParam(r, "validationCode"),
		middleware.GetActorFromContext(r.Context()),
	)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Ticket validated successfully", result)
}

type checkInRequest struct {
	QRPayload string `json:"qr_payload"`
}

// CheckIn handles POST /api/tickets/check-in with a scanned QR payload
func (h *TicketHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.tickets.CheckInByQR(r.Context(), req.QRPayload, middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Ticket validated successfully", result)
}

// MyTickets handles GET /api/tickets/my-tickets
func (h *TicketHandler) MyTickets(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		respondError(w, r, h.logger, models.ErrUnauthorized)
		return
	}

	page, limit := pageParams(r, 10, 100)
	query := r.URL.Query()

	filter := services.TicketListFilter{
		Status:   models.TicketStatus(strings.ToLower(query.Get("status"))),
		Upcoming: query.Get("upcoming") == "true",
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}

	tickets, total, err := h.tickets.ListForUser(r.Context(), actor.ID, filter)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{
		"tickets":    tickets,
		"pagination": newPagination(page, limit, total),
	})
}

// MyTicket handles GET /api/tickets/my-tickets/{id}
func (h *TicketHandler) MyTicket(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		respondError(w, r, h.logger, models.ErrUnauthorized)
		return
	}

	view, err := h.tickets.GetForOwner(r.Context(), chi.URLParam(r, "id"), actor.ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", view)
}

// Cancel handles PUT /api/tickets/{id}/cancel
func (h *TicketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	result, err := h.tickets.Cancel(r.Context(), chi.URLParam(r, "id"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Ticket cancelled successfully", result)
}

// Refund handles PUT /api/tickets/{id}/refund
func (h *TicketHandler) Refund(w http.ResponseWriter, r *http.Request) {
	result, err := h.tickets.Refund(r.Context(), chi.URLParam(r, "id"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Ticket refunded successfully", result)
}

// EventTickets handles GET /api/tickets/event/{eventId}
func (h *TicketHandler) EventTickets(w http.ResponseWriter, r *http.Request) {
	report, err := h.tickets.EventTickets(r.Context(), chi.URLParam(r, "eventId"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", report)
}

// EventStats handles GET /api/tickets/event/{eventId}/stats
func (h *TicketHandler) EventStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tickets.EventStats(r.Context(), chi.URLParam(r, "eventId"), middleware.GetActorFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"stats": stats})
}
