package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingNoShow     BookingStatus = "NO_SHOW"
)

func (s BookingStatus) IsTerminal() bool {
	return s == BookingCheckedOut || s == BookingCancelled || s == BookingNoShow
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCheckedIn, BookingCheckedOut, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

type Booking struct {
	ID                    uuid.UUID      `json:"id"`
	Reference             string         `json:"booking_reference"`
	UserID                uuid.UUID      `json:"user_id"`
	HotelID               uuid.UUID      `json:"hotel_id"`
	RoomTypeID            *uuid.UUID     `json:"room_type_id,omitempty"`
	CheckInDate           time.Time      `json:"check_in_date"`
	CheckOutDate          time.Time      `json:"check_out_date"`
	Nights                int            `json:"nights"`
	Guests                int            `json:"guests"`
	Price                 PriceBreakdown `json:"price"`
	TotalPrice            float64        `json:"total_price"`
	Currency              string         `json:"currency"`
	Status                BookingStatus  `json:"status"`
	PaymentStatus         PaymentStatus  `json:"payment_status"`
	PaidAmount            float64        `json:"paid_amount"`
	CheckInCode           *string        `json:"qr_code,omitempty"`
	SpecialRequests       string         `json:"special_requests,omitempty"`
	ArrivalTime           string         `json:"arrival_time,omitempty"`
	EarlyCheckinRequested bool           `json:"early_checkin_requested"`
	LateCheckoutRequested bool           `json:"late_checkout_requested"`
	ActualCheckIn         *time.Time     `json:"actual_check_in,omitempty"`
	ActualCheckOut        *time.Time     `json:"actual_check_out,omitempty"`
	CancellationReason    string         `json:"cancellation_reason,omitempty"`
	CancelledAt           *time.Time     `json:"cancelled_at,omitempty"`
	RefundAmount          *float64       `json:"refund_amount,omitempty"`
	ConfirmedAt           *time.Time     `json:"confirmed_at,omitempty"`
	ExpiresAt             time.Time      `json:"expires_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	Version               int            `json:"-"`
}

func (b *Booking) RequiresPayment() bool {
	return b.Status == BookingPending
}

// BookingPatch lists the fields a guest or owner may edit after creation.
type BookingPatch struct {
	Guests                *int
	SpecialRequests       *string
	ArrivalTime           *string
	EarlyCheckinRequested *bool
	LateCheckoutRequested *bool
}

func (p BookingPatch) Apply(b *Booking) error {
	if b.Status != BookingPending && b.Status != BookingConfirmed {
		return &TransitionError{
			BookingID: b.ID.String(),
			Current:   b.Status,
			Target:    b.Status,
			Expected:  []BookingStatus{BookingPending, BookingConfirmed},
		}
	}

	if p.Guests != nil {
		if *p.Guests < 1 {
			return NewValidationError("guests must be at least 1")
		}
		b.Guests = *p.Guests
	}
	if p.SpecialRequests != nil {
		b.SpecialRequests = *p.SpecialRequests
	}
	if p.ArrivalTime != nil {
		b.ArrivalTime = *p.ArrivalTime
	}
	if p.EarlyCheckinRequested != nil {
		b.EarlyCheckinRequested = *p.EarlyCheckinRequested
	}
	if p.LateCheckoutRequested != nil {
		b.LateCheckoutRequested = *p.LateCheckoutRequested
	}
	return nil
}
