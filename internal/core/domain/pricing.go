package domain

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

type PriceBreakdown struct {
	RoomRate       float64 `json:"room_rate"`
	Subtotal       float64 `json:"subtotal"`
	Taxes          float64 `json:"taxes"`
	ServiceFees    float64 `json:"service_fees"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, NewValidationError("date %q must use YYYY-MM-DD", value)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// Nights counts whole calendar days between check-in and check-out.
func Nights(checkIn, checkOut time.Time) (int, error) {
	in := truncateDay(checkIn)
	out := truncateDay(checkOut)

	nights := int(out.Sub(in).Hours() / 24)
	if nights <= 0 {
		return 0, ErrInvalidDateRange
	}
	return nights, nil
}

func Quote(h *Hotel, nights int) PriceBreakdown {
	subtotal := roundCents(h.PricePerNight * float64(nights))
	taxes := roundCents(subtotal * h.TaxRate)
	fees := roundCents(subtotal * h.ServiceFeeRate)

	return PriceBreakdown{
		RoomRate:    h.PricePerNight,
		Subtotal:    subtotal,
		Taxes:       taxes,
		ServiceFees: fees,
		TotalAmount: roundCents(subtotal + taxes + fees),
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// CompareAmounts compares two money amounts to the cent.
func CompareAmounts(a, b float64) int {
	ca, cb := toCents(a), toCents(b)
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	default:
		return 0
	}
}

// RoundRating rounds an average rating to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
