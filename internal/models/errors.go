package models

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	ErrEventNotFound            = errors.New("event not found")
	ErrTicketNotFound           = errors.New("ticket not found")
	ErrEventAlreadyStarted      = errors.New("event has already started")
	ErrEventAlreadyEnded        = errors.New("event has already ended")
	ErrEventAlreadyValidated    = errors.New("event has already been validated")
	ErrEventNotAvailable        = errors.New("event is not available for ticket purchase")
	ErrInsufficientCapacity     = errors.New("not enough tickets available")
	ErrMissingCustomerInfo      = errors.New("customer information is required for guest purchases")
	ErrPaymentFailed            = errors.New("payment failed")
	ErrTicketNotActive          = errors.New("ticket is not active")
	ErrTicketNotCancellable     = errors.New("ticket cannot be cancelled")
	ErrNotRefundable            = errors.New("ticket cannot be refunded")
	ErrTicketExpired            = errors.New("ticket has expired")
	ErrTooEarly                 = errors.New("ticket can only be used on the event day")
	ErrCancellationWindowClosed = errors.New("cannot cancel ticket within the cancellation window before the event")
	ErrInvalidQuantity          = errors.New("quantity must be between 1 and 10")
	ErrInvalidInput             = errors.New("invalid input")
	ErrUnauthorized             = errors.New("unauthorized access")
	ErrForbidden                = errors.New("forbidden")
	ErrConflict                 = errors.New("concurrent update conflict")
	ErrInvalidTransition        = errors.New("invalid ticket state transition")
)

// ErrInvalidEmail is an ErrInvalidInput raised for malformed guest emails
var ErrInvalidEmail = fmt.Errorf("%w: customer email format is invalid", ErrInvalidInput)

// InsufficientCapacityError reports how many tickets were left when a
// reservation was refused.
type InsufficientCapacityError struct {
	Requested int
	Available int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("%s (requested: %d, available: %d)", ErrInsufficientCapacity, e.Requested, e.Available)
}

func (e *InsufficientCapacityError) Unwrap() error {
	return ErrInsufficientCapacity
}

// CancellationWindowError carries the rounded number of hours left before
// the event when a cancellation was refused.
type CancellationWindowError struct {
	HoursUntilEvent int
}

func (e *CancellationWindowError) Error() string {
	return fmt.Sprintf("%s (hours until event: %d)", ErrCancellationWindowClosed, e.HoursUntilEvent)
}

func (e *CancellationWindowError) Unwrap() error {
	return ErrCancellationWindowClosed
}
