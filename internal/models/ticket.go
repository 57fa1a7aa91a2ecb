package models

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus represents the usage status of a ticket
type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
	TicketExpired   TicketStatus = "expired"
	TicketRefunded  TicketStatus = "refunded"
)

// PaymentStatus represents the payment state of a ticket
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// PaymentMethod is how the buyer paid
type PaymentMethod string

const (
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentMobileMoney  PaymentMethod = "mobile_money"
	PaymentCrypto       PaymentMethod = "crypto"
)

const (
	MinTicketsPerPurchase   = 1
	MaxTicketsPerPurchase   = 10
	MaxSpecialRequestsLen   = 300
	MaxNotesLen             = 500
	DefaultExpiryAfterStart = 24 * time.Hour
)

var ticketEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Owner is who a ticket belongs to: a RegisteredOwner or a GuestOwner.
type Owner interface {
	DisplayName() string
	isOwner()
}

// RegisteredOwner is an authenticated account holder.
type RegisteredOwner struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func (RegisteredOwner) isOwner() {}

// DisplayName returns the account holder's name
func (o RegisteredOwner) DisplayName() string {
	return o.Name
}

// GuestOwner holds the contact details of a buyer without an account.
type GuestOwner struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

func (GuestOwner) isOwner() {}

// DisplayName returns "First Last"
func (o GuestOwner) DisplayName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// Complete reports whether the required guest fields are present
func (o GuestOwner) Complete() bool {
	return strings.TrimSpace(o.FirstName) != "" &&
		strings.TrimSpace(o.LastName) != "" &&
		strings.TrimSpace(o.Email) != ""
}

// Validate checks the guest fields needed to issue a ticket
func (o GuestOwner) Validate() error {
	if !o.Complete() {
		return ErrMissingCustomerInfo
	}
	if !ticketEmailRegex.MatchString(o.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// Ticket represents one purchase of one or more seats for an event
type Ticket struct {
	ID              string          `json:"id"`
	TicketNumber    string          `json:"ticket_number"`
	ValidationCode  string          `json:"validation_code"`
	QRPayload       string          `json:"qr_payload"`
	EventID         string          `json:"event_id"`
	Owner           Owner           `json:"-"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentID       string          `json:"payment_id,omitempty"`
	Status          TicketStatus    `json:"status"`
	UsedAt          *time.Time      `json:"used_at,omitempty"`
	UsedBy          *string         `json:"used_by,omitempty"`
	ExpiresAt       time.Time       `json:"expires_at"`
	SpecialRequests string          `json:"special_requests,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MarshalJSON flattens the owner into user/customer_info fields.
func (t Ticket) MarshalJSON() ([]byte, error) {
	type plain Ticket
	out := struct {
		plain
		User         *RegisteredOwner `json:"user,omitempty"`
		CustomerInfo *GuestOwner      `json:"customer_info,omitempty"`
	}{plain: plain(t)}

	switch o := t.Owner.(type) {
	case RegisteredOwner:
		out.User = &o
	case GuestOwner:
		out.CustomerInfo = &o
	}

	return json.Marshal(out)
}

// UserID returns the registered owner's id, or "" for guest tickets
func (t *Ticket) UserID() string {
	if o, ok := t.Owner.(RegisteredOwner); ok {
		return o.UserID
	}
	return ""
}

// IsOwnedBy reports whether the ticket belongs to the given account
func (t *Ticket) IsOwnedBy(userID string) bool {
	return userID != "" && t.UserID() == userID
}

// CustomerName returns the display name used at check-in
func (t *Ticket) CustomerName() string {
	if t.Owner == nil {
		return ""
	}
	return t.Owner.DisplayName()
}

// Validate validates the ticket data
func (t *Ticket) Validate() error {
	if err := ValidateQuantity(t.Quantity); err != nil {
		return err
	}

	if t.UnitPrice.IsNegative() {
		return errors.New("unit price cannot be negative")
	}

	if !t.TotalPrice.Equal(t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))) {
		return errors.New("total price must equal quantity times unit price")
	}

	if err := validateOwner(t.Owner); err != nil {
		return err
	}

	if len(t.SpecialRequests) > MaxSpecialRequestsLen {
		return errors.New("special requests cannot exceed 300 characters")
	}

	if len(t.Notes) > MaxNotesLen {
		return errors.New("notes cannot exceed 500 characters")
	}

	if t.EventID == "" {
		return errors.New("event reference is required")
	}

	if t.TicketNumber == "" || t.ValidationCode == "" {
		return errors.New("ticket number and validation code are required")
	}

	switch t.Status {
	case TicketActive, TicketUsed, TicketCancelled, TicketExpired, TicketRefunded:
	default:
		return errors.New("invalid ticket status")
	}

	switch t.PaymentStatus {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled:
	default:
		return errors.New("invalid payment status")
	}

	return nil
}

// ValidateQuantity enforces the per-purchase bounds
func ValidateQuantity(quantity int) error {
	if quantity < MinTicketsPerPurchase || quantity > MaxTicketsPerPurchase {
		return ErrInvalidQuantity
	}
	return nil
}

func validateOwner(owner Owner) error {
	switch o := owner.(type) {
	case RegisteredOwner:
		if o.UserID == "" {
			return errors.New("user reference is required")
		}
	case GuestOwner:
		return o.Validate()
	default:
		return errors.New("ticket owner is required")
	}
	return nil
}

// TicketState is the pair of statuses a stored ticket is compared against
// before an update is applied.
type TicketState struct {
	Status        TicketStatus
	PaymentStatus PaymentStatus
}

// State returns the ticket's current statuses
func (t *Ticket) State() TicketState {
	return TicketState{Status: t.Status, PaymentStatus: t.PaymentStatus}
}

// IsActive returns true if the ticket is active
func (t *Ticket) IsActive() bool {
	return t.Status == TicketActive
}

// IsUsed returns true if the ticket has been used
func (t *Ticket) IsUsed() bool {
	return t.Status == TicketUsed
}

// IsExpired reports whether now is past the ticket's expiry
func (t *Ticket) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// RefundAmount is what the buyer gets back after a cancellation or refund
func (t *Ticket) RefundAmount() decimal.Decimal {
	if t.PaymentStatus == PaymentRefunded {
		return t.TotalPrice
	}
	return decimal.Zero
}

// BuildQRPayload joins a ticket number and validation code for scanning
func BuildQRPayload(ticketNumber, validationCode string) string {
	return ticketNumber + "-" + validationCode
}

// ParseQRPayload splits a scanned payload on its last '-'. Ticket numbers
// contain dashes; validation codes never do.
func ParseQRPayload(payload string) (ticketNumber, validationCode string, err error) {
	payload = strings.TrimSpace(payload)
	i := strings.LastIndex(payload, "-")
	if i <= 0 || i == len(payload)-1 {
		return "", "", ErrInvalidInput
	}
	return payload[:i], payload[i+1:], nil
}
