package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"event-ticketing-api/internal/models"

	"github.com/shopspring/decimal"
)

const (
	PaymentResultSuccess = "success"
	PaymentResultFailed  = "failed"
)

// PaymentRequest describes one charge
type PaymentRequest struct {
	Amount       decimal.Decimal      `json:"amount"`
	Method       models.PaymentMethod `json:"method"`
	Email        string               `json:"email,omitempty"`
	Name         string               `json:"name"`
	TicketNumber string               `json:"ticket_number"`
}

// PaymentResult represents the result of a payment processing attempt
type PaymentResult struct {
	PaymentID     string          `json:"payment_id"`
	Status        string          `json:"status"` // "success" or "failed"
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
	ProcessedAt   time.Time       `json:"processed_at"`
	ErrorMessage  string          `json:"error_message,omitempty"`
}

// Succeeded reports whether the charge went through
func (r *PaymentResult) Succeeded() bool {
	return r != nil && r.Status == PaymentResultSuccess
}

// SimulatedPaymentProcessor approves every charge up to an optional limit.
// A zero limit approves everything.
type SimulatedPaymentProcessor struct {
	declineAbove decimal.Decimal
	ids          IdentityGenerator
	clock        Clock
	logger       *slog.Logger
}

// NewSimulatedPaymentProcessor creates a simulated processor
func NewSimulatedPaymentProcessor(declineAbove decimal.Decimal, ids IdentityGenerator, clock Clock, logger *slog.Logger) *SimulatedPaymentProcessor {
	if ids == nil {
		ids = RandomIdentityGenerator{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SimulatedPaymentProcessor{
		declineAbove: declineAbove,
		ids:          ids,
		clock:        clock,
		logger:       logger.With("component", "payment"),
	}
}

// ProcessPayment simulates a charge
func (p *SimulatedPaymentProcessor) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: payment amount cannot be negative", models.ErrInvalidInput)
	}

	now := p.clock.Now()
	paymentID := p.ids.PaymentReference(now)

	result := &PaymentResult{
		PaymentID:     paymentID,
		Status:        PaymentResultSuccess,
		Amount:        req.Amount,
		TransactionID: fmt.Sprintf("txn_%d", now.UnixMilli()),
		ProcessedAt:   now,
	}

	if p.declineAbove.IsPositive() && req.Amount.GreaterThan(p.declineAbove) {
		result.Status = PaymentResultFailed
		result.ErrorMessage = fmt.Sprintf("amount %s exceeds the approval limit", req.Amount.StringFixed(2))
	}

	p.logger.InfoContext(ctx, "simulated payment processed",
		"payment_id", paymentID,
		"ticket_number", req.TicketNumber,
		"amount", req.Amount.StringFixed(2),
		"method", req.Method,
		"status", result.Status,
	)

	return result, nil
}
