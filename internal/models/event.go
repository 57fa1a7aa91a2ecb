package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus represents the status of an event
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusCancelled EventStatus = "cancelled"
	StatusCompleted EventStatus = "completed"
)

// Event represents an event in the system. Only the capacity ledger may
// change AvailableTickets; everything else treats it as read-only.
type Event struct {
	ID               string          `json:"id" db:"id"`
	Title            string          `json:"title" db:"title"`
	Description      string          `json:"description" db:"description"`
	Venue            string          `json:"venue" db:"venue"`
	Status           EventStatus     `json:"status" db:"status"`
	StartDate        time.Time       `json:"start_date" db:"start_date"`
	EndDate          time.Time       `json:"end_date" db:"end_date"`
	TicketPrice      decimal.Decimal `json:"ticket_price" db:"ticket_price"`
	TotalCapacity    int             `json:"total_capacity" db:"total_capacity"`
	AvailableTickets int             `json:"available_tickets" db:"available_tickets"`
	OrganizerID      string          `json:"organizer_id" db:"organizer_id"`
	ValidatedBy      *string         `json:"validated_by,omitempty" db:"validated_by"`
	ValidatedAt      *time.Time      `json:"validated_at,omitempty" db:"validated_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// EventCreateRequest represents the data needed to create a new event
type EventCreateRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Venue         string          `json:"venue"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	TicketPrice   decimal.Decimal `json:"ticket_price"`
	TotalCapacity int             `json:"total_capacity"`
}

// Validate validates the event data
func (e *Event) Validate() error {
	if err := validateTitle(e.Title); err != nil {
		return err
	}

	if err := validateDates(e.StartDate, e.EndDate); err != nil {
		return err
	}

	if err := validatePricing(e.TicketPrice, e.TotalCapacity); err != nil {
		return err
	}

	if err := validateStatus(e.Status); err != nil {
		return err
	}

	if e.AvailableTickets < 0 || e.AvailableTickets > e.TotalCapacity {
		return errors.New("available tickets must be between 0 and total capacity")
	}

	return nil
}

// Validate validates event creation data
func (req *EventCreateRequest) Validate() error {
	if err := validateTitle(req.Title); err != nil {
		return err
	}

	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		return err
	}

	if len(req.Description) > 2000 {
		return errors.New("description cannot exceed 2000 characters")
	}

	if len(req.Venue) > 100 {
		return errors.New("venue name cannot exceed 100 characters")
	}

	return validatePricing(req.TicketPrice, req.TotalCapacity)
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}

	if len(title) > 200 {
		return errors.New("title cannot exceed 200 characters")
	}

	return nil
}

func validateDates(startDate, endDate time.Time) error {
	if startDate.IsZero() {
		return errors.New("start date is required")
	}

	if endDate.IsZero() {
		return errors.New("end date is required")
	}

	if !endDate.After(startDate) {
		return errors.New("end date must be after start date")
	}

	return nil
}

func validatePricing(price decimal.Decimal, capacity int) error {
	if price.IsNegative() {
		return errors.New("ticket price cannot be negative")
	}

	if capacity < 1 {
		return errors.New("capacity must be at least 1")
	}

	return nil
}

func validateStatus(status EventStatus) error {
	switch status {
	case StatusDraft, StatusPublished, StatusCancelled, StatusCompleted:
		return nil
	default:
		return errors.New("invalid event status")
	}
}

// SoldTickets returns the number of tickets currently held against capacity
func (e *Event) SoldTickets() int {
	return e.TotalCapacity - e.AvailableTickets
}

// Reserve takes quantity seats out of the available pool.
func (e *Event) Reserve(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if e.AvailableTickets < quantity {
		return &InsufficientCapacityError{Requested: quantity, Available: e.AvailableTickets}
	}

	e.AvailableTickets -= quantity
	return nil
}

// Release returns quantity seats to the pool. The result is clamped to
// TotalCapacity so a repeated release cannot inflate availability.
func (e *Event) Release(quantity int) {
	if quantity < 0 {
		return
	}

	e.AvailableTickets += quantity
	if e.AvailableTickets > e.TotalCapacity {
		e.AvailableTickets = e.TotalCapacity
	}
}

// IsPublished returns true if the event is published
func (e *Event) IsPublished() bool {
	return e.Status == StatusPublished
}

// IsValidated returns true once an administrator has approved the event
func (e *Event) IsValidated() bool {
	return e.ValidatedAt != nil
}

// HasStarted reports whether the event start is at or before now
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartDate.After(now)
}

// HasEnded reports whether the event end is before now
func (e *Event) HasEnded(now time.Time) bool {
	return e.EndDate.Before(now)
}

// CanBeDeleted returns false while any ticket still holds capacity
func (e *Event) CanBeDeleted() bool {
	return e.SoldTickets() == 0
}

// Duration returns the duration of the event
func (e *Event) Duration() time.Duration {
	return e.EndDate.Sub(e.StartDate)
}

// SameDay reports whether t falls on the event's calendar day in loc.
func (e *Event) SameDay(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ey, em, ed := e.StartDate.In(loc).Date()
	ty, tm, td := t.In(loc).Date()
	return ey == ty && em == tm && ed == td
}
