package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"event-ticketing-api/internal/metrics"
	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	purchaseSuccess        = "success"
	purchaseRejected       = "rejected"
	purchasePaymentFailed  = "payment_failed"
	purchaseError          = "error"
	checkInAccepted        = "accepted"
	checkInNotFound        = "not_found"
	checkInTooEarly        = "too_early"
	checkInError           = "error"
	releaseCreateFailed    = "create_failed"
	releasePaymentFailed   = "payment_failed"
	releaseConfirmFailed   = "confirm_failed"
	releaseCancel          = "cancel"
	releaseRefund          = "refund"
	reservePurchase        = "purchase"
	maxTicketNumberRetries = 3
)

// TicketServiceDeps are the collaborators of a TicketService
type TicketServiceDeps struct {
	Events   EventRepository
	Tickets  TicketRepository
	Ledger   CapacityLedger
	Payments PaymentProcessor
	IDs      IdentityGenerator
	Clock    Clock
	Metrics  *metrics.Metrics
	Audit    *AuditService
	Logger   *slog.Logger
}

// TicketServiceConfig holds the ticketing rules
type TicketServiceConfig struct {
	CancellationWindow time.Duration
	ExpiryAfterStart   time.Duration
	Location           *time.Location
}

// TicketService handles ticket-related business logic
type TicketService struct {
	events   EventRepository
	tickets  TicketRepository
	ledger   CapacityLedger
	payments PaymentProcessor
	ids      IdentityGenerator
	clock    Clock
	metrics  *metrics.Metrics
	audit    *AuditService
	logger   *slog.Logger
	cfg      TicketServiceConfig
}

// NewTicketService creates a new ticket service
func NewTicketService(deps TicketServiceDeps, cfg TicketServiceConfig) *TicketService {
	if deps.IDs == nil {
		deps.IDs = RandomIdentityGenerator{}
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.CancellationWindow <= 0 {
		cfg.CancellationWindow = 24 * time.Hour
	}
	if cfg.ExpiryAfterStart <= 0 {
		cfg.ExpiryAfterStart = models.DefaultExpiryAfterStart
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &TicketService{
		events:   deps.Events,
		tickets:  deps.Tickets,
		ledger:   deps.Ledger,
		payments: deps.Payments,
		ids:      deps.IDs,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		audit:    deps.Audit,
		logger:   deps.Logger.With("component", "tickets"),
		cfg:      cfg,
	}
}

// PurchaseRequest represents a request to purchase tickets
type PurchaseRequest struct {
	EventID         string               `json:"event_id"`
	Quantity        int                  `json:"quantity"`
	CustomerInfo    *models.GuestOwner   `json:"customer_info,omitempty"`
	PaymentMethod   models.PaymentMethod `json:"payment_method,omitempty"`
	SpecialRequests string               `json:"special_requests,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// PurchaseResult represents the result of a ticket purchase
type PurchaseResult struct {
	Ticket           *models.Ticket `json:"ticket"`
	AvailableTickets int            `json:"available_tickets"`
}

// EventSummary is the part of an event shown alongside a ticket
type EventSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Venue     string    `json:"venue"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func summarizeEvent(e *models.Event) *EventSummary {
	return &EventSummary{
		ID:        e.ID,
		Title:     e.Title,
		Venue:     e.Venue,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
	}
}

// CheckInTicket is the ticket part of a check-in response
type CheckInTicket struct {
	ID           string     `json:"id"`
	TicketNumber string     `json:"ticket_number"`
	Quantity     int        `json:"quantity"`
	UsedAt       *time.Time `json:"used_at"`
}

// CheckInResult is returned when a ticket is admitted
type CheckInResult struct {
	Ticket       CheckInTicket `json:"ticket"`
	Event        *EventSummary `json:"event"`
	CustomerName string        `json:"customer_name"`
}

// CancelResult is returned by Cancel and Refund
type CancelResult struct {
	Ticket           *models.Ticket  `json:"ticket"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	AvailableTickets *int           `json:"available_tickets,omitempty"`
}

// TicketView is a ticket with its event
type TicketView struct {
	Ticket *models.Ticket `json:"ticket"`
	Event  *EventSummary  `json:"event,omitempty"`
}

// TicketListFilter narrows a user's ticket list
type TicketListFilter struct {
	Status   models.TicketStatus
	Upcoming bool
	Limit    int
	Offset   int
}

// EventTicketReport lists an event's tickets with totals
type EventTicketReport struct {
	Event         *EventSummary    `json:"event"`
	Tickets       []*models.Ticket `json:"tickets"`
	TotalTickets  int              `json:"total_tickets"`
	TotalQuantity int              `json:"total_quantity"`
	TotalRevenue  decimal.Decimal  `json:"total_revenue"`
}

// Purchase reserves seats, issues a ticket and charges for it. Seats are
// returned to the event whenever the purchase does not complete.
func (s *TicketService) Purchase(ctx context.Context, req *PurchaseRequest, actor *models.Actor) (*PurchaseResult, error) {
	started := time.Now()

	result, err := s.purchase(ctx, req, actor)

	outcome := purchaseSuccess
	switch {
	case err == nil:
	case errors.Is(err, models.ErrPaymentFailed):
		outcome = purchasePaymentFailed
	case isBusinessError(err):
		outcome = purchaseRejected
	default:
		outcome = purchaseError
	}
	s.metrics.TrackPurchase(outcome, time.Since(started))

	return result, err
}

func (s *TicketService) purchase(ctx context.Context, req *PurchaseRequest, actor *models.Actor) (*PurchaseResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: purchase request is required", models.ErrInvalidInput)
	}
	if err := models.ValidateQuantity(req.Quantity); err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentCard
	}
	switch method {
	case models.PaymentCard, models.PaymentBankTransfer, models.PaymentMobileMoney, models.PaymentCrypto:
	default:
		return nil, fmt.Errorf("%w: unsupported payment method %q", models.ErrInvalidInput, method)
	}
	if len(req.SpecialRequests) > models.MaxSpecialRequestsLen {
		return nil, fmt.Errorf("%w: special requests cannot exceed %d characters", models.ErrInvalidInput, models.MaxSpecialRequestsLen)
	}
	if len(req.Notes) > models.MaxNotesLen {
		return nil, fmt.Errorf("%w: notes cannot exceed %d characters", models.ErrInvalidInput, models.MaxNotesLen)
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !event.IsPublished() {
		return nil, models.ErrEventNotAvailable
	}
	if event.HasStarted(now) {
		return nil, models.ErrEventAlreadyStarted
	}

	available, err := s.ledger.Available(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to read availability: %w", err)
	}
	if available < req.Quantity {
		return nil, &models.InsufficientCapacityError{Requested: req.Quantity, Available: available}
	}

	owner, err := purchaseOwner(req, actor)
	if err != nil {
		return nil, err
	}

	totalPrice := event.TicketPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

	remaining, err := s.ledger.Reserve(ctx, event.ID, req.Quantity)
	if err != nil {
		return nil, err
	}
	s.metrics.TrackReserve(reservePurchase, req.Quantity)

	ticket, err := s.issueTicket(ctx, event, owner, req, method, totalPrice, now)
	if err != nil {
		s.release(ctx, event.ID, req.Quantity, releaseCreateFailed)
		return nil, err
	}

	payment, payErr := s.payments.ProcessPayment(ctx, PaymentRequest{
		Amount:       totalPrice,
		Method:       method,
		Email:        guestEmail(owner),
		Name:         owner.DisplayName(),
		TicketNumber: ticket.TicketNumber,
	})
	if payErr != nil || !payment.Succeeded() {
		return nil, s.failPayment(ctx, ticket, payment, payErr)
	}

	prev := ticket.State()
	if _, err := models.Transition(ticket, models.ActionConfirmPayment, models.TransitionInput{
		At:        s.clock.Now(),
		PaymentID: payment.PaymentID,
	}); err != nil {
		return nil, err
	}
	if err := s.confirmPayment(ctx, ticket, prev); err != nil {
		s.logger.ErrorContext(ctx, "failed to record completed payment, charge must be reversed",
			"ticket_id", ticket.ID,
			"payment_id", payment.PaymentID,
			"amount", totalPrice.StringFixed(2),
			"error", err,
		)
		s.voidTicket(ctx, ticket, prev, releaseConfirmFailed)
		return nil, fmt.Errorf("failed to confirm ticket payment: %w", err)
	}
	s.metrics.TrackTransition(string(models.ActionConfirmPayment))
	s.metrics.SetAvailable(event.ID, remaining)

	s.logger.InfoContext(ctx, "ticket purchased",
		"ticket_id", ticket.ID,
		"ticket_number", ticket.TicketNumber,
		"event_id", event.ID,
		"quantity", ticket.Quantity,
		"total", ticket.TotalPrice.StringFixed(2),
		"available", remaining,
	)

	return &PurchaseResult{Ticket: ticket, AvailableTickets: remaining}, nil
}

func purchaseOwner(req *PurchaseRequest, actor *models.Actor) (models.Owner, error) {
	if actor != nil && actor.ID != "" {
		return models.RegisteredOwner{UserID: actor.ID, Name: actor.Name}, nil
	}
	if req.CustomerInfo == nil {
		return nil, models.ErrMissingCustomerInfo
	}

	guest := models.GuestOwner{
		FirstName: strings.TrimSpace(req.CustomerInfo.FirstName),
		LastName:  strings.TrimSpace(req.CustomerInfo.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.CustomerInfo.Email)),
		Phone:     strings.TrimSpace(req.CustomerInfo.Phone),
	}
	if err := guest.Validate(); err != nil {
		return nil, err
	}
	return guest, nil
}

func guestEmail(owner models.Owner) string {
	if g, ok := owner.(models.GuestOwner); ok {
		return g.Email
	}
	return ""
}

// issueTicket persists a new pending ticket, drawing a fresh number if the
// generated one collides with an existing ticket.
func (s *TicketService) issueTicket(ctx context.Context, event *models.Event, owner models.Owner, req *PurchaseRequest, method models.PaymentMethod, total decimal.Decimal, now time.Time) (*models.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < maxTicketNumberRetries; attempt++ {
		number := s.ids.TicketNumber(now)
		code := s.ids.ValidationCode()

		ticket := &models.Ticket{
			ID:              s.ids.NewID(),
			TicketNumber:    number,
			ValidationCode:  code,
			QRPayload:       models.BuildQRPayload(number, code),
			EventID:         event.ID,
			Owner:           owner,
			Quantity:        req.Quantity,
			UnitPrice:       event.TicketPrice,
			TotalPrice:      total,
			PaymentStatus:   models.PaymentPending,
			PaymentMethod:   method,
			Status:          models.TicketActive,
			ExpiresAt:       event.StartDate.Add(s.cfg.ExpiryAfterStart),
			SpecialRequests: req.SpecialRequests,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		err := s.tickets.Create(ctx, ticket)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("failed to create ticket: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to create ticket: %w", lastErr)
}

// failPayment records the declined charge on the ticket and returns its seats
func (s *TicketService) failPayment(ctx context.Context, ticket *models.Ticket, payment *PaymentResult, payErr error) error {
	reason := "payment was declined"
	switch {
	case payErr != nil:
		reason = payErr.Error()
	case payment != nil && payment.ErrorMessage != "":
		reason = payment.ErrorMessage
	}

	prev := ticket.State()
	effect, err := models.Transition(ticket, models.ActionFailPayment, models.TransitionInput{At: s.clock.Now()})
	if err == nil {
		err = s.tickets.Update(context.WithoutCancel(ctx), ticket, prev)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist failed payment", "ticket_id", ticket.ID, "error", err)
		s.voidTicket(ctx, ticket, prev, releasePaymentFailed)
	} else {
		s.metrics.TrackTransition(string(models.ActionFailPayment))
		s.release(ctx, ticket.EventID, effect.ReleaseQuantity, releasePaymentFailed)
	}

	s.logger.WarnContext(ctx, "ticket payment failed",
		"ticket_id", ticket.ID,
		"event_id", ticket.EventID,
		"reason", reason,
	)

	return fmt.Errorf("%w: %s", models.ErrPaymentFailed, reason)
}

// confirmPayment stores the completed payment, retrying once detached from
// the request so a client disconnect does not strand a paid ticket.
func (s *TicketService) confirmPayment(ctx context.Context, ticket *models.Ticket, prev models.TicketState) error {
	err := s.tickets.Update(ctx, ticket, prev)
	if err == nil || errors.Is(err, models.ErrConflict) {
		return err
	}

	s.logger.WarnContext(ctx, "retrying payment confirmation", "ticket_id", ticket.ID, "error", err)
	return s.tickets.Update(context.WithoutCancel(ctx), ticket, prev)
}

// voidTicket deletes a ticket whose purchase could not be completed and
// returns its seats. If the row cannot be removed its seats stay held, so
// the ledger keeps matching the stored tickets; check-in refuses it because
// its payment never completed.
func (s *TicketService) voidTicket(ctx context.Context, ticket *models.Ticket, prev models.TicketState, reason string) {
	if err := s.tickets.Delete(context.WithoutCancel(ctx), ticket.ID, prev); err != nil {
		s.logger.ErrorContext(ctx, "failed to void unpaid ticket, seats remain held",
			"ticket_id", ticket.ID,
			"event_id", ticket.EventID,
			"quantity", ticket.Quantity,
			"error", err,
		)
		return
	}

	s.release(ctx, ticket.EventID, ticket.Quantity, reason)
}

// release returns seats to an event and reports the new availability.
// Failures are logged, not returned: the caller is already unwinding another
// error or has committed the ticket.
func (s *TicketService) release(ctx context.Context, eventID string, quantity int, reason string) (int, bool) {
	if quantity <= 0 {
		return 0, false
	}

	available, err := s.ledger.Release(context.WithoutCancel(ctx), eventID, quantity)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to release seats",
			"event_id", eventID,
			"quantity", quantity,
			"reason", reason,
			"error", err,
		)
		return 0, false
	}

	s.metrics.TrackRelease(reason, quantity)
	s.metrics.SetAvailable(eventID, available)
	return available, true
}

// CheckIn admits the holder of an active ticket on the day of its event.
// Unknown, inactive and expired tickets are all reported as not found.
func (s *TicketService) CheckIn(ctx context.Context, ticketNumber, validationCode string, actor *models.Actor) (*CheckInResult, error) {
	result, err := s.checkIn(ctx, strings.TrimSpace(ticketNumber), strings.TrimSpace(validationCode), actor)

	switch {
	case err == nil:
		s.metrics.TrackCheckIn(checkInAccepted)
	case errors.Is(err, models.ErrTicketNotFound):
		s.metrics.TrackCheckIn(checkInNotFound)
	case errors.Is(err, models.ErrTooEarly):
		s.metrics.TrackCheckIn(checkInTooEarly)
	default:
		s.metrics.TrackCheckIn(checkInError)
	}

	return result, err
}

// CheckInByQR checks in the ticket encoded in a scanned payload
func (s *TicketService) CheckInByQR(ctx context.Context, payload string, actor *models.Actor) (*CheckInResult, error) {
	number, code, err := models.ParseQRPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ticket code", models.ErrInvalidInput)
	}
	return s.CheckIn(ctx, number, code, actor)
}

func (s *TicketService) checkIn(ctx context.Context, number, code string, actor *models.Actor) (*CheckInResult, error) {
	if number == "" || code == "" {
		return nil, fmt.Errorf("%w: ticket number and validation code are required", models.ErrInvalidInput)
	}

	ticket, err := s.tickets.GetByNumberAndCode(ctx, number, code)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !ticket.IsActive() || ticket.PaymentStatus != models.PaymentCompleted {
		return nil, models.ErrTicketNotFound
	}
	if !ticket.ExpiresAt.After(now) {
		s.expire(ctx, ticket, now)
		return nil, models.ErrTicketNotFound
	}

	event, err := s.events.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket event: %w", err)
	}

	if !event.SameDay(now, s.cfg.Location) && !event.HasStarted(now) {
		return nil, models.ErrTooEarly
	}

	prev := ticket.State()
	if _, err := models.Transition(ticket, models.ActionUse, models.TransitionInput{
		At:    now,
		Actor: actor.ActorID(),
	}); err != nil {
		return nil, models.ErrTicketNotFound
	}
	if err := s.tickets.Update(ctx, ticket, prev); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	s.metrics.TrackTransition(string(models.ActionUse))

	s.logger.InfoContext(ctx, "ticket checked in",
		"ticket_id", ticket.ID,
		"event_id", event.ID,
		"used_by", ticket.UsedBy,
	)

	return &CheckInResult{
		Ticket: CheckInTicket{
			ID:           ticket.ID,
			TicketNumber: ticket.TicketNumber,
			Quantity:     ticket.Quantity,
			UsedAt:       ticket.UsedAt,
		},
		Event:        summarizeEvent(event),
		CustomerName: ticket.CustomerName(),
	}, nil
}

// expire moves a lapsed active ticket to expired. Errors are logged only:
// the caller reports the ticket as not found either way.
func (s *TicketService) expire(ctx context.Context, ticket *models.Ticket, now time.Time) {
	prev := ticket.State()
	if _, err := models.Transition(ticket, models.ActionExpire, models.TransitionInput{At: now}); err != nil {
		return
	}
	if err := s.tickets.Update(ctx, ticket, prev); err != nil {
		s.logger.DebugContext(ctx, "failed to expire ticket", "ticket_id", ticket.ID, "error", err)
		return
	}
	s.metrics.TrackTransition(string(models.ActionExpire))
}

// Cancel cancels the actor's own ticket while the event is far enough away
func (s *TicketService) Cancel(ctx context.Context, ticketID string, actor *models.Actor) (*CancelResult, error) {
	if actor == nil || actor.ID == "" {
		return nil, models.ErrUnauthorized
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsOwnedBy(actor.ID) {
		return nil, models.ErrTicketNotFound
	}
	if !ticket.IsActive() {
		return nil, models.ErrTicketNotCancellable
	}

	event, err := s.events.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket event: %w", err)
	}

	now := s.clock.Now()
	untilStart := event.StartDate.Sub(now)
	if untilStart < s.cfg.CancellationWindow {
		return nil, &models.CancellationWindowError{HoursUntilEvent: int(math.Round(untilStart.Hours()))}
	}

	return s.closeTicket(ctx, ticket, models.ActionCancel, models.ErrTicketNotCancellable, releaseCancel, now)
}

// Refund refunds an active, paid ticket and returns its seats
func (s *TicketService) Refund(ctx context.Context, ticketID string, actor *models.Actor) (*CancelResult, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	result, err := s.closeTicket(ctx, ticket, models.ActionRefund, models.ErrNotRefundable, releaseRefund, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, actor, models.AuditActionTicketRefund, models.AuditTargetTicket, ticket.ID, map[string]interface{}{
		"event_id":      ticket.EventID,
		"quantity":      ticket.Quantity,
		"refund_amount": result.RefundAmount,
	})
	return result, nil
}

// closeTicket applies a cancel or refund and hands the seats back. A
// concurrent change to the ticket surfaces as stateErr.
func (s *TicketService) closeTicket(ctx context.Context, ticket *models.Ticket, action models.TicketAction, stateErr error, reason string, now time.Time) (*CancelResult, error) {
	prev := ticket.State()
	effect, err := models.Transition(ticket, action, models.TransitionInput{At: now})
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket, prev); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, stateErr
		}
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	s.metrics.TrackTransition(string(action))

	result := &CancelResult{Ticket: ticket, RefundAmount: ticket.RefundAmount()}
	if available, ok := s.release(ctx, ticket.EventID, effect.ReleaseQuantity, reason); ok {
		result.AvailableTickets = &available
	}

	s.logger.InfoContext(ctx, "ticket closed",
		"ticket_id", ticket.ID,
		"action", action,
		"released", effect.ReleaseQuantity,
	)

	return result, nil
}

// GetForOwner returns one of the user's tickets with its event
func (s *TicketService) GetForOwner(ctx context.Context, ticketID, userID string) (*TicketView, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsOwnedBy(userID) {
		return nil, models.ErrTicketNotFound
	}

	view := &TicketView{Ticket: ticket}
	event, err := s.events.GetByID(ctx, ticket.EventID)
	switch {
	case err == nil:
		view.Event = summarizeEvent(event)
	case errors.Is(err, models.ErrEventNotFound):
	default:
		return nil, fmt.Errorf("failed to load ticket event: %w", err)
	}

	return view, nil
}

// ListForUser returns a page of the user's tickets and the total count
func (s *TicketService) ListForUser(ctx context.Context, userID string, filter TicketListFilter) ([]*models.Ticket, int, error) {
	if userID == "" {
		return nil, 0, models.ErrUnauthorized
	}

	filters := repositories.TicketSearchFilters{
		Status: filter.Status,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if filter.Upcoming {
		now := s.clock.Now()
		filters.UpcomingAfter = &now
	}

	return s.tickets.ListByUser(ctx, userID, filters)
}

// EventTickets lists every ticket of an event for its organizer or an admin
func (s *TicketService) EventTickets(ctx context.Context, eventID string, actor *models.Actor) (*EventTicketReport, error) {
	event, err := s.authorizeEvent(ctx, eventID, actor)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	report := &EventTicketReport{
		Event:        summarizeEvent(event),
		Tickets:      tickets,
		TotalTickets: len(tickets),
		TotalRevenue: decimal.Zero,
	}
	for _, t := range tickets {
		report.TotalQuantity += t.Quantity
		if t.PaymentStatus == models.PaymentCompleted {
			report.TotalRevenue = report.TotalRevenue.Add(t.TotalPrice)
		}
	}

	return report, nil
}

// EventStats groups an event's tickets by status
func (s *TicketService) EventStats(ctx context.Context, eventID string, actor *models.Actor) ([]repositories.StatusStat, error) {
	if _, err := s.authorizeEvent(ctx, eventID, actor); err != nil {
		return nil, err
	}
	return s.tickets.EventStats(ctx, eventID)
}

func (s *TicketService) authorizeEvent(ctx context.Context, eventID string, actor *models.Actor) (*models.Event, error) {
	if actor == nil {
		return nil, models.ErrUnauthorized
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageEvent(event) {
		return nil, models.ErrForbidden
	}
	return event, nil
}

// isBusinessError reports whether err is one of the domain rejections
// rather than an infrastructure failure.
func isBusinessError(err error) bool {
	for _, target := range []error{
		models.ErrEventNotFound,
		models.ErrTicketNotFound,
		models.ErrEventAlreadyStarted,
		models.ErrEventAlreadyEnded,
		models.ErrEventAlreadyValidated,
		models.ErrEventNotAvailable,
		models.ErrInsufficientCapacity,
		models.ErrMissingCustomerInfo,
		models.ErrTicketNotActive,
		models.ErrTicketNotCancellable,
		models.ErrNotRefundable,
		models.ErrTicketExpired,
		models.ErrTooEarly,
		models.ErrCancellationWindowClosed,
		models.ErrInvalidQuantity,
		models.ErrInvalidInput,
		models.ErrUnauthorized,
		models.ErrForbidden,
		models.ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
