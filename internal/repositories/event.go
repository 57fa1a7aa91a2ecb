package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"event-ticketing-api/internal/models"
)

// EventRepository handles event persistence and owns the SQL capacity ledger
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, venue, status, start_date, end_date, ticket_price,
	total_capacity, available_tickets, organizer_id, validated_by, validated_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	var validatedBy sql.NullString
	var validatedAt sql.NullTime

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Venue,
		&event.Status,
		&event.StartDate,
		&event.EndDate,
		&event.TicketPrice,
		&event.TotalCapacity,
		&event.AvailableTickets,
		&event.OrganizerID,
		&validatedBy,
		&validatedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if validatedBy.Valid {
		event.ValidatedBy = &validatedBy.String
	}
	if validatedAt.Valid {
		t := validatedAt.Time
		event.ValidatedAt = &t
	}

	return event, nil
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO events (id, title, description, venue, status, start_date, end_date, ticket_price,
			total_capacity, available_tickets, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Venue,
		event.Status,
		event.StartDate.UTC(),
		event.EndDate.UTC(),
		event.TicketPrice,
		event.TotalCapacity,
		event.AvailableTickets,
		event.OrganizerID,
		event.CreatedAt.UTC(),
		event.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("event %s already exists: %w", event.ID, models.ErrConflict)
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// ListUpcoming returns published events starting after now, soonest first
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND start_date > $2
		ORDER BY start_date ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.StatusPublished, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// UpdateStatus persists the moderation fields of an event. Capacity columns
// change only through Reserve and Release.
func (r *EventRepository) UpdateStatus(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET status = $1, validated_by = $2, validated_at = $3, updated_at = $4
		WHERE id = $5`

	var validatedAt any
	if event.ValidatedAt != nil {
		validatedAt = event.ValidatedAt.UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		event.Status,
		event.ValidatedBy,
		validatedAt,
		event.UpdatedAt.UTC(),
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrEventNotFound
	}

	return nil
}

// Reserve atomically takes quantity seats from the event with a single
// conditional UPDATE.
func (r *EventRepository) Reserve(ctx context.Context, eventID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, models.ErrInvalidQuantity
	}

	query := `
		UPDATE events
		SET available_tickets = available_tickets - $1, updated_at = $2
		WHERE id = $3 AND available_tickets >= $1
		RETURNING available_tickets`

	var remaining int
	err := r.db.QueryRowContext(ctx, query, quantity, time.Now().UTC(), eventID).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to reserve tickets: %w", err)
	}

	// Nothing matched: either the event is gone or it is short on seats.
	available, err := r.availableByID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	return available, &models.InsufficientCapacityError{Requested: quantity, Available: available}
}

// Release atomically returns quantity seats, clamped to total capacity.
func (r *EventRepository) Release(ctx context.Context, eventID string, quantity int) (int, error) {
	if quantity < 0 {
		return 0, models.ErrInvalidQuantity
	}

	query := `
		UPDATE events
		SET available_tickets = CASE
				WHEN available_tickets + $1 > total_capacity THEN total_capacity
				ELSE available_tickets + $1
			END,
			updated_at = $2
		WHERE id = $3
		RETURNING available_tickets`

	var remaining int
	err := r.db.QueryRowContext(ctx, query, quantity, time.Now().UTC(), eventID).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, models.ErrEventNotFound
		}
		return 0, fmt.Errorf("failed to release tickets: %w", err)
	}

	return remaining, nil
}

// Available returns the stored seat counter for the event
func (r *EventRepository) Available(ctx context.Context, event *models.Event) (int, error) {
	return r.availableByID(ctx, event.ID)
}

// HeldSeats sums the seats taken by tickets that still hold capacity.
// Cancelled and refunded tickets have released theirs.
func (r *EventRepository) HeldSeats(ctx context.Context, eventID string) (int, error) {
	var held int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM tickets
		WHERE event_id = $1 AND status IN ($2, $3, $4)`,
		eventID, models.TicketActive, models.TicketUsed, models.TicketExpired,
	).Scan(&held)
	if err != nil {
		return 0, fmt.Errorf("failed to count held seats: %w", err)
	}
	return held, nil
}

func (r *EventRepository) availableByID(ctx context.Context, eventID string) (int, error) {
	var available int
	err := r.db.QueryRowContext(ctx, `SELECT available_tickets FROM events WHERE id = $1`, eventID).Scan(&available)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, models.ErrEventNotFound
		}
		return 0, fmt.Errorf("failed to read available tickets: %w", err)
	}
	return available, nil
}
