package models

import (
	"encoding/json"
	"time"
)

// AuditLog records an administrative action on an event or ticket
type AuditLog struct {
	ID         string          `json:"id" db:"id"`
	ActorID    string          `json:"actor_id" db:"actor_id"`
	ActorRole  UserRole        `json:"actor_role" db:"actor_role"`
	Action     string          `json:"action" db:"action"`
	TargetType string          `json:"target_type" db:"target_type"`
	TargetID   string          `json:"target_id" db:"target_id"`
	Details    json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Common audit actions
const (
	AuditActionEventValidate = "event_validate"
	AuditActionEventReject   = "event_reject"
	AuditActionEventCancel   = "event_cancel"
	AuditActionTicketRefund  = "ticket_refund"
)

// Common target types
const (
	AuditTargetEvent  = "event"
	AuditTargetTicket = "ticket"
)
