package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/models"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins
var errorMappings = []errorMapping{
	{models.ErrEventNotFound, http.StatusNotFound, "EVENT_NOT_FOUND"},
	{models.ErrTicketNotFound, http.StatusNotFound, "TICKET_NOT_FOUND"},
	{models.ErrEventAlreadyStarted, http.StatusBadRequest, "EVENT_STARTED"},
	{models.ErrEventAlreadyEnded, http.StatusBadRequest, "EVENT_ENDED"},
	{models.ErrEventAlreadyValidated, http.StatusBadRequest, "EVENT_ALREADY_VALIDATED"},
	{models.ErrEventNotAvailable, http.StatusBadRequest, "EVENT_NOT_AVAILABLE"},
	{models.ErrInsufficientCapacity, http.StatusBadRequest, "INSUFFICIENT_CAPACITY"},
	{models.ErrMissingCustomerInfo, http.StatusBadRequest, "MISSING_CUSTOMER_INFO"},
	{models.ErrPaymentFailed, http.StatusPaymentRequired, "PAYMENT_FAILED"},
	{models.ErrTicketNotActive, http.StatusBadRequest, "TICKET_NOT_ACTIVE"},
	{models.ErrTicketNotCancellable, http.StatusBadRequest, "TICKET_NOT_CANCELLABLE"},
	{models.ErrNotRefundable, http.StatusBadRequest, "TICKET_NOT_REFUNDABLE"},
	{models.ErrTicketExpired, http.StatusBadRequest, "TICKET_EXPIRED"},
	{models.ErrTooEarly, http.StatusBadRequest, "TOO_EARLY"},
	{models.ErrCancellationWindowClosed, http.StatusBadRequest, "CANCELLATION_WINDOW_CLOSED"},
	{models.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{models.ErrInvalidInput, http.StatusBadRequest, "VALIDATION_ERROR"},
	{models.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{models.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{models.ErrConflict, http.StatusConflict, "CONFLICT"},
	{models.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
}

// statusForError maps a service error to its HTTP status and error code
func statusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// errorDetails exposes the structured fields of typed errors
func errorDetails(err error) interface{} {
	var capErr *models.InsufficientCapacityError
	if errors.As(err, &capErr) {
		return map[string]int{"requested": capErr.Requested, "available": capErr.Available}
	}

	var windowErr *models.CancellationWindowError
	if errors.As(err, &windowErr) {
		return map[string]int{"hours_until_event": windowErr.HoursUntilEvent}
	}

	return nil
}

// respondError writes err in the error envelope. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusForError(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		message = "Internal server error"
	}

	_ = writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: errorDetails(err),
	})
}
