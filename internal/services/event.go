package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"event-ticketing-api/internal/metrics"
	"event-ticketing-api/internal/models"
)

// EventService handles event moderation and exposes ledger-fresh capacity
type EventService struct {
	events  EventRepository
	ledger  CapacityLedger
	ids     IdentityGenerator
	clock   Clock
	metrics *metrics.Metrics
	audit   *AuditService
	logger  *slog.Logger
}

// NewEventService creates a new event service
func NewEventService(events EventRepository, ledger CapacityLedger, ids IdentityGenerator, clock Clock, m *metrics.Metrics, audit *AuditService, logger *slog.Logger) *EventService {
	if ids == nil {
		ids = RandomIdentityGenerator{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &EventService{
		events:  events,
		ledger:  ledger,
		ids:     ids,
		clock:   clock,
		metrics: m,
		audit:   audit,
		logger:  logger.With("component", "events"),
	}
}

// Create stores a new draft event owned by the actor
func (s *EventService) Create(ctx context.Context, req *models.EventCreateRequest, actor *models.Actor) (*models.Event, error) {
	if actor == nil {
		return nil, models.ErrUnauthorized
	}
	if !actor.HasRole(models.UserRoleOrganizer, models.UserRoleAdmin) {
		return nil, models.ErrForbidden
	}
	if req == nil {
		return nil, fmt.Errorf("%w: event data is required", models.ErrInvalidInput)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	now := s.clock.Now()
	event := &models.Event{
		ID:               s.ids.NewID(),
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		Venue:            strings.TrimSpace(req.Venue),
		Status:           models.StatusDraft,
		StartDate:        req.StartDate.UTC(),
		EndDate:          req.EndDate.UTC(),
		TicketPrice:      req.TicketPrice,
		TotalCapacity:    req.TotalCapacity,
		AvailableTickets: req.TotalCapacity,
		OrganizerID:      actor.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "organizer_id", actor.ID, "capacity", event.TotalCapacity)
	return event, nil
}

// Get returns an event with its current availability
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.refreshAvailability(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ListUpcoming returns published events that have not started yet
func (s *EventService) ListUpcoming(ctx context.Context, limit int) ([]*models.Event, error) {
	events, err := s.events.ListUpcoming(ctx, s.clock.Now(), limit)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		if err := s.refreshAvailability(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *EventService) refreshAvailability(ctx context.Context, event *models.Event) error {
	available, err := s.ledger.Available(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to read availability: %w", err)
	}
	event.AvailableTickets = available
	s.metrics.SetAvailable(event.ID, available)
	return nil
}

// Validate publishes an event on behalf of an administrator
func (s *EventService) Validate(ctx context.Context, id string, actor *models.Actor) (*models.Event, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if event.IsValidated() {
		return nil, models.ErrEventAlreadyValidated
	}
	if event.HasEnded(now) {
		return nil, models.ErrEventAlreadyEnded
	}

	event.Status = models.StatusPublished
	event.ValidatedBy = actor.ActorID()
	event.ValidatedAt = &now
	event.UpdatedAt = now

	if err := s.events.UpdateStatus(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to validate event: %w", err)
	}

	s.audit.LogAction(ctx, actor, models.AuditActionEventValidate, models.AuditTargetEvent, event.ID, map[string]interface{}{
		"title":        event.Title,
		"organizer_id": event.OrganizerID,
	})
	s.logger.InfoContext(ctx, "event validated", "event_id", event.ID, "admin_id", actor.ID)
	return event, nil
}

// Reject cancels an event that failed moderation
func (s *EventService) Reject(ctx context.Context, id string, actor *models.Actor) (*models.Event, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.cancel(ctx, event, actor, models.AuditActionEventReject, "event rejected")
}

// Cancel cancels an event for its organizer or an administrator
func (s *EventService) Cancel(ctx context.Context, id string, actor *models.Actor) (*models.Event, error) {
	if actor == nil {
		return nil, models.ErrUnauthorized
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageEvent(event) {
		return nil, models.ErrForbidden
	}
	if event.HasEnded(s.clock.Now()) {
		return nil, models.ErrEventAlreadyEnded
	}

	return s.cancel(ctx, event, actor, models.AuditActionEventCancel, "event cancelled")
}

func (s *EventService) cancel(ctx context.Context, event *models.Event, actor *models.Actor, action, msg string) (*models.Event, error) {
	if event.Status == models.StatusCancelled {
		return event, nil
	}

	event.Status = models.StatusCancelled
	event.UpdatedAt = s.clock.Now()

	if err := s.events.UpdateStatus(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}

	s.audit.LogAction(ctx, actor, action, models.AuditTargetEvent, event.ID, map[string]interface{}{
		"title":     event.Title,
		"sold":      event.SoldTickets(),
		"starts_at": event.StartDate,
	})
	s.logger.InfoContext(ctx, msg, "event_id", event.ID, "actor_id", actor.ID)
	return event, nil
}

// AuditTrail returns the moderation history of an event to an administrator
func (s *EventService) AuditTrail(ctx context.Context, id string, actor *models.Actor) ([]*models.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if _, err := s.events.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.audit.GetByTarget(ctx, models.AuditTargetEvent, id, 100)
}

// CanDelete reports whether no ticket holds any of the event's capacity
func (s *EventService) CanDelete(ctx context.Context, id string) (bool, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return event.CanBeDeleted(), nil
}
