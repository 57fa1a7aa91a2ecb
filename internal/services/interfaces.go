package services

import (
	"context"
	"time"

	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/repositories"
)

// EventRepository is the event storage used by the services
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Event, error)
	UpdateStatus(ctx context.Context, event *models.Event) error
}

// TicketRepository is the ticket storage used by the services. Update and
// Delete only apply when the stored statuses still match expected.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	GetByNumberAndCode(ctx context.Context, ticketNumber, validationCode string) (*models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket, expected models.TicketState) error
	Delete(ctx context.Context, id string, expected models.TicketState) error
	ListByUser(ctx context.Context, userID string, filters repositories.TicketSearchFilters) ([]*models.Ticket, int, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error)
	EventStats(ctx context.Context, eventID string) ([]repositories.StatusStat, error)
}

// CapacityLedger is the per-event seat counter. Reserve must be a single
// conditional decrement and Release a single clamped increment.
type CapacityLedger interface {
	Reserve(ctx context.Context, eventID string, quantity int) (int, error)
	Release(ctx context.Context, eventID string, quantity int) (int, error)
	Available(ctx context.Context, event *models.Event) (int, error)
}

// PaymentProcessor charges a buyer for a ticket
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// IdentityGenerator produces ids and references for new records
type IdentityGenerator interface {
	NewID() string
	TicketNumber(now time.Time) string
	ValidationCode() string
	PaymentReference(now time.Time) string
}

// TicketServiceInterface defines the interface for ticket services
type TicketServiceInterface interface {
	Purchase(ctx context.Context, req *PurchaseRequest, actor *models.Actor) (*PurchaseResult, error)
	CheckIn(ctx context.Context, ticketNumber, validationCode string, actor *models.Actor) (*CheckInResult, error)
	CheckInByQR(ctx context.Context, payload string, actor *models.Actor) (*CheckInResult, error)
	Cancel(ctx context.Context, ticketID string, actor *models.Actor) (*CancelResult, error)
	Refund(ctx context.Context, ticketID string, actor *models.Actor) (*CancelResult, error)
	GetForOwner(ctx context.Context, ticketID, userID string) (*TicketView, error)
	ListForUser(ctx context.Context, userID string, filter TicketListFilter) ([]*models.Ticket, int, error)
	EventTickets(ctx context.Context, eventID string, actor *models.Actor) (*EventTicketReport, error)
	EventStats(ctx context.Context, eventID string, actor *models.Actor) ([]repositories.StatusStat, error)
}

// EventServiceInterface defines the interface for event services
type EventServiceInterface interface {
	Create(ctx context.Context, req *models.EventCreateRequest, actor *models.Actor) (*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	ListUpcoming(ctx context.Context, limit int) ([]*models.Event, error)
	Validate(ctx context.Context, id string, actor *models.Actor) (*models.Event, error)
	Reject(ctx context.Context, id string, actor *models.Actor) (*models.Event, error)
	Cancel(ctx context.Context, id string, actor *models.Actor) (*models.Event, error)
	CanDelete(ctx context.Context, id string) (bool, error)
	AuditTrail(ctx context.Context, id string, actor *models.Actor) ([]*models.AuditLog, error)
}
