package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// IsSettled reports whether the gateway outcome for this payment is known.
func (s PaymentStatus) IsSettled() bool {
	return s != PaymentPending
}

// GatewayStatus is the normalized outcome reported by a payment provider.
type GatewayStatus string

const (
	GatewaySucceeded GatewayStatus = "SUCCEEDED"
	GatewayFailed    GatewayStatus = "FAILED"
	GatewayPending   GatewayStatus = "PENDING"
)

const (
	ProviderStripe = "stripe"
	ProviderMock   = "mock"
	ProviderManual = "manual"
)

type Payment struct {
	ID             uuid.UUID     `json:"id"`
	Reference      string        `json:"payment_reference"`
	TransactionID  string        `json:"transaction_id"`
	UserID         uuid.UUID     `json:"user_id"`
	BookingID      *uuid.UUID    `json:"booking_id,omitempty"`
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	Provider       string        `json:"payment_provider"`
	ClientSecret   string        `json:"client_secret,omitempty"`
	FailureReason  string        `json:"failure_reason,omitempty"`
	RefundRequired bool          `json:"refund_required"`
	RefundAmount   *float64      `json:"refund_amount,omitempty"`
	RefundedAmount float64       `json:"refunded_amount"`
	RefundReason   string        `json:"refund_reason,omitempty"`
	RefundedAt     *time.Time    `json:"refunded_at,omitempty"`
	ProcessedAt    *time.Time    `json:"processed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsActive reports whether the gateway still holds money, or may yet
// capture it, for this payment.
func (p *Payment) IsActive() bool {
	switch p.Status {
	case PaymentPending, PaymentPaid, PaymentPartiallyRefunded:
		return true
	default:
		return false
	}
}

// HoldsSlot reports whether the payment occupies the booking's single active
// payment slot. A payment flagged to give back everything it retains has
// released the slot; one flagged for a partial refund keeps it.
func (p *Payment) HoldsSlot() bool {
	if !p.IsActive() {
		return false
	}
	if !p.RefundRequired {
		return true
	}
	return p.RefundAmount != nil && toCents(*p.RefundAmount) < toCents(p.Retained())
}

// Retained is what the payment still holds after earlier refunds.
func (p *Payment) Retained() float64 {
	return roundCents(p.Amount - p.RefundedAmount)
}

func (p *Payment) MarkPaid(at time.Time) {
	p.Status = PaymentPaid
	p.ProcessedAt = &at
	p.UpdatedAt = at
}

// MarkFailed also drops any refund flag; nothing was captured.
func (p *Payment) MarkFailed(reason string, at time.Time) {
	p.Status = PaymentFailed
	p.FailureReason = reason
	p.RefundRequired = false
	p.RefundAmount = nil
	p.RefundReason = ""
	p.ProcessedAt = &at
	p.UpdatedAt = at
}

// FlagRefund marks everything the payment retains as owed back.
func (p *Payment) FlagRefund(reason string, at time.Time) {
	p.FlagPartialRefund(p.Retained(), reason, at)
}

func (p *Payment) FlagPartialRefund(amount float64, reason string, at time.Time) {
	amount = roundCents(amount)
	p.RefundRequired = true
	p.RefundAmount = &amount
	p.RefundReason = reason
	p.UpdatedAt = at
}

// MarkRefunded books the flagged refund. The payment ends REFUNDED once
// nothing is retained, PARTIALLY_REFUNDED otherwise.
func (p *Payment) MarkRefunded(at time.Time) {
	amount := p.Retained()
	if p.RefundAmount != nil {
		amount = *p.RefundAmount
	}
	p.RefundedAmount = roundCents(p.RefundedAmount + amount)

	p.Status = PaymentPartiallyRefunded
	if toCents(p.Retained()) <= 0 {
		p.Status = PaymentRefunded
	}
	p.RefundRequired = false
	p.RefundedAt = &at
	p.UpdatedAt = at
}

// RefundKey identifies one refund of this payment towards the gateway. It
// changes after every booked refund, so a retried call reuses it and a later
// partial refund does not.
func (p *Payment) RefundKey() string {
	return fmt.Sprintf("refund_%s_%d", p.TransactionID, toCents(p.RefundedAmount))
}

// PaymentEvent is a gateway notification keyed by the provider transaction id.
type PaymentEvent struct {
	TransactionID string
	BookingID     *uuid.UUID
	Status        GatewayStatus
	Amount        float64
	Currency      string
	FailureReason string
}

// PaymentOutcome is what reconciliation reports for a payment event.
type PaymentOutcome struct {
	PaymentID      uuid.UUID     `json:"payment_id"`
	BookingID      uuid.UUID     `json:"booking_id"`
	TransactionID  string        `json:"transaction_id"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	BookingStatus  BookingStatus `json:"booking_status"`
	RefundRequired bool          `json:"refund_required"`
	Duplicate      bool          `json:"duplicate"`
}
