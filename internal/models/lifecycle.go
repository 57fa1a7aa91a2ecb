package models

import (
	"fmt"
	"time"
)

// TicketAction is an event that moves a ticket between states
type TicketAction string

const (
	ActionConfirmPayment TicketAction = "confirm_payment"
	ActionFailPayment    TicketAction = "fail_payment"
	ActionCancel         TicketAction = "cancel"
	ActionRefund         TicketAction = "refund"
	ActionUse            TicketAction = "use"
	ActionExpire         TicketAction = "expire"
)

// TransitionInput carries the data some actions record on the ticket
type TransitionInput struct {
	At        time.Time
	Actor     *string // validating staff member for ActionUse, nil when anonymous
	PaymentID string  // processor reference for ActionConfirmPayment
}

// Effect describes what the caller must do to the capacity ledger after a
// successful transition.
type Effect struct {
	ReleaseQuantity int
}

// Transition applies action to t if the current state allows it. On error
// the ticket is left untouched.
func Transition(t *Ticket, action TicketAction, in TransitionInput) (Effect, error) {
	if err := guard(t, action, in.At); err != nil {
		return Effect{}, err
	}

	var effect Effect

	switch action {
	case ActionConfirmPayment:
		t.PaymentStatus = PaymentCompleted
		t.PaymentID = in.PaymentID

	case ActionFailPayment:
		t.PaymentStatus = PaymentFailed
		t.Status = TicketCancelled
		effect.ReleaseQuantity = t.Quantity

	case ActionCancel:
		t.Status = TicketCancelled
		switch t.PaymentStatus {
		case PaymentCompleted:
			t.PaymentStatus = PaymentRefunded
		case PaymentPending:
			t.PaymentStatus = PaymentCancelled
		}
		effect.ReleaseQuantity = t.Quantity

	case ActionRefund:
		t.Status = TicketRefunded
		t.PaymentStatus = PaymentRefunded
		effect.ReleaseQuantity = t.Quantity

	case ActionUse:
		usedAt := in.At
		t.Status = TicketUsed
		t.UsedAt = &usedAt
		t.UsedBy = in.Actor

	case ActionExpire:
		t.Status = TicketExpired
	}

	t.UpdatedAt = in.At
	return effect, nil
}

func guard(t *Ticket, action TicketAction, now time.Time) error {
	switch action {
	case ActionConfirmPayment, ActionFailPayment:
		if t.PaymentStatus != PaymentPending {
			return fmt.Errorf("%w: %s with payment %s", ErrInvalidTransition, action, t.PaymentStatus)
		}
		if t.Status != TicketActive {
			return ErrTicketNotActive
		}

	case ActionCancel:
		if t.Status != TicketActive {
			return ErrTicketNotCancellable
		}

	case ActionRefund:
		if t.Status != TicketActive || t.PaymentStatus != PaymentCompleted {
			return ErrNotRefundable
		}

	case ActionUse:
		if t.Status != TicketActive {
			return ErrTicketNotActive
		}
		if t.IsExpired(now) {
			return ErrTicketExpired
		}

	case ActionExpire:
		if t.Status != TicketActive {
			return ErrTicketNotActive
		}
		if !t.IsExpired(now) {
			return fmt.Errorf("%w: ticket expires at %s", ErrInvalidTransition, t.ExpiresAt.Format(time.RFC3339))
		}

	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	return nil
}
