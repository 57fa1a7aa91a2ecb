package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"event-ticketing-api/internal/models"

	"github.com/shopspring/decimal"
)

// TicketRepository handles ticket data operations
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// TicketSearchFilters represents filters for listing a user's tickets
type TicketSearchFilters struct {
	Status        models.TicketStatus // Filter by status
	UpcomingAfter *time.Time          // Only tickets for events starting after this time
	Limit         int                 // Number of results to return
	Offset        int                 // Number of results to skip
}

// StatusStat aggregates tickets of one status for an event
type StatusStat struct {
	Status        models.TicketStatus `json:"status"`
	Tickets       int                 `json:"tickets"`
	TotalQuantity int                 `json:"total_quantity"`
	TotalRevenue  decimal.Decimal     `json:"total_revenue"`
}

const ticketColumns = `t.id, t.ticket_number, t.validation_code, t.qr_payload, t.event_id,
	t.user_id, t.user_name, t.guest_first_name, t.guest_last_name, t.guest_email, t.guest_phone,
	t.quantity, t.unit_price, t.total_price, t.payment_status, t.payment_method, t.payment_id,
	t.status, t.used_at, t.used_by, t.expires_at, t.special_requests, t.notes, t.created_at, t.updated_at`

func scanTicket(row rowScanner) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	var (
		userID, userName                sql.NullString
		firstName, lastName, email, tel sql.NullString
		paymentID, usedBy               sql.NullString
		usedAt                          sql.NullTime
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.ValidationCode,
		&ticket.QRPayload,
		&ticket.EventID,
		&userID,
		&userName,
		&firstName,
		&lastName,
		&email,
		&tel,
		&ticket.Quantity,
		&ticket.UnitPrice,
		&ticket.TotalPrice,
		&ticket.PaymentStatus,
		&ticket.PaymentMethod,
		&paymentID,
		&ticket.Status,
		&usedAt,
		&usedBy,
		&ticket.ExpiresAt,
		&ticket.SpecialRequests,
		&ticket.Notes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		ticket.Owner = models.RegisteredOwner{UserID: userID.String, Name: userName.String}
	} else {
		ticket.Owner = models.GuestOwner{
			FirstName: firstName.String,
			LastName:  lastName.String,
			Email:     email.String,
			Phone:     tel.String,
		}
	}

	ticket.PaymentID = paymentID.String
	if usedAt.Valid {
		t := usedAt.Time
		ticket.UsedAt = &t
	}
	if usedBy.Valid {
		ticket.UsedBy = &usedBy.String
	}

	return ticket, nil
}

// ownerColumns flattens the owner union into its nullable columns
func ownerColumns(owner models.Owner) (userID, userName, firstName, lastName, email, phone any) {
	switch o := owner.(type) {
	case models.RegisteredOwner:
		return o.UserID, o.Name, nil, nil, nil, nil
	case models.GuestOwner:
		var phone any
		if o.Phone != "" {
			phone = o.Phone
		}
		return nil, nil, o.FirstName, o.LastName, o.Email, phone
	}
	return nil, nil, nil, nil, nil, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Create inserts a new ticket
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	userID, userName, firstName, lastName, email, phone := ownerColumns(ticket.Owner)

	query := `
		INSERT INTO tickets (id, ticket_number, validation_code, qr_payload, event_id,
			user_id, user_name, guest_first_name, guest_last_name, guest_email, guest_phone,
			quantity, unit_price, total_price, payment_status, payment_method, payment_id,
			status, expires_at, special_requests, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23)`

	_, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.TicketNumber,
		ticket.ValidationCode,
		ticket.QRPayload,
		ticket.EventID,
		userID,
		userName,
		firstName,
		lastName,
		email,
		phone,
		ticket.Quantity,
		ticket.UnitPrice,
		ticket.TotalPrice,
		ticket.PaymentStatus,
		ticket.PaymentMethod,
		nullString(ticket.PaymentID),
		ticket.Status,
		ticket.ExpiresAt.UTC(),
		ticket.SpecialRequests,
		ticket.Notes,
		ticket.CreatedAt.UTC(),
		ticket.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ticket number %s already issued: %w", ticket.TicketNumber, models.ErrConflict)
		}
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket by ID
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id = $1`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return ticket, nil
}

// GetByNumberAndCode looks a ticket up by both check-in credentials
func (r *TicketRepository) GetByNumberAndCode(ctx context.Context, ticketNumber, validationCode string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets t
		WHERE t.ticket_number = $1 AND t.validation_code = $2`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, ticketNumber, validationCode))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket by number: %w", err)
	}

	return ticket, nil
}

// Update persists the mutable lifecycle fields of a ticket, but only if the
// stored row is still in the expected state. A row that moved on in the
// meantime yields ErrConflict.
func (r *TicketRepository) Update(ctx context.Context, ticket *models.Ticket, expected models.TicketState) error {
	query := `
		UPDATE tickets
		SET status = $1, payment_status = $2, payment_id = $3, used_at = $4, used_by = $5, updated_at = $6
		WHERE id = $7 AND status = $8 AND payment_status = $9`

	result, err := r.db.ExecContext(ctx, query,
		ticket.Status,
		ticket.PaymentStatus,
		nullString(ticket.PaymentID),
		nullTime(ticket.UsedAt),
		ticket.UsedBy,
		ticket.UpdatedAt.UTC(),
		ticket.ID,
		expected.Status,
		expected.PaymentStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE id = $1`, ticket.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return models.ErrTicketNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check ticket: %w", err)
		}
		return fmt.Errorf("ticket %s is no longer %s/%s: %w", ticket.ID, expected.Status, expected.PaymentStatus, models.ErrConflict)
	}

	return nil
}

// Delete removes a ticket that is still in the expected state. It is used to
// void a purchase that could not be completed.
func (r *TicketRepository) Delete(ctx context.Context, id string, expected models.TicketState) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tickets WHERE id = $1 AND status = $2 AND payment_status = $3`,
		id, expected.Status, expected.PaymentStatus)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ticket %s is not %s/%s: %w", id, expected.Status, expected.PaymentStatus, models.ErrConflict)
	}

	return nil
}

// ListByUser returns a user's tickets, newest first, and the total match count
func (r *TicketRepository) ListByUser(ctx context.Context, userID string, filters TicketSearchFilters) ([]*models.Ticket, int, error) {
	var conditions []string
	var args []any
	argIndex := 1

	conditions = append(conditions, fmt.Sprintf("t.user_id = $%d", argIndex))
	args = append(args, userID)
	argIndex++

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}

	if filters.UpcomingAfter != nil {
		conditions = append(conditions, fmt.Sprintf("e.start_date > $%d", argIndex))
		args = append(args, filters.UpcomingAfter.UTC())
		argIndex++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")
	from := `FROM tickets t JOIN events e ON e.id = t.event_id`

	var total int
	countQuery := `SELECT COUNT(*) ` + from + ` ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count user tickets: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`,
		ticketColumns, from, whereClause, argIndex, argIndex+1)
	args = append(args, limit, filters.Offset)

	tickets, err := r.queryTickets(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user tickets: %w", err)
	}

	return tickets, total, nil
}

// ListByEvent returns every ticket issued for an event, newest first
func (r *TicketRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets t
		WHERE t.event_id = $1
		ORDER BY t.created_at DESC`

	tickets, err := r.queryTickets(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event tickets: %w", err)
	}

	return tickets, nil
}

// EventStats groups an event's tickets by status
func (r *TicketRepository) EventStats(ctx context.Context, eventID string) ([]StatusStat, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_price), 0)
		FROM tickets
		WHERE event_id = $1
		GROUP BY status
		ORDER BY status`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event stats: %w", err)
	}
	defer rows.Close()

	var stats []StatusStat
	for rows.Next() {
		var s StatusStat
		if err := rows.Scan(&s.Status, &s.Tickets, &s.TotalQuantity, &s.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan event stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]*models.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}
