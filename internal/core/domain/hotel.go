package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Hotel struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	TotalRooms     int       `json:"total_rooms"`
	AvailableRooms int       `json:"available_rooms"`
	PricePerNight  float64   `json:"price_per_night"`
	Currency       string    `json:"currency"`
	TaxRate        float64   `json:"tax_rate"`
	ServiceFeeRate float64   `json:"service_fee_rate"`
	Rating         float64   `json:"rating"`
	TotalReviews   int       `json:"total_reviews"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (h *Hotel) HasAvailability() bool {
	return h.AvailableRooms > 0
}

func (h *Hotel) IsOwnedBy(userID uuid.UUID) bool {
	return h.OwnerID == userID
}

type NewHotel struct {
	Name           string
	Description    string
	City           string
	Country        string
	TotalRooms     int
	PricePerNight  float64
	Currency       string
	TaxRate        float64
	ServiceFeeRate float64
}

func (n NewHotel) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return NewValidationError("hotel name is required")
	}
	if n.TotalRooms < 1 {
		return NewValidationError("total_rooms must be at least 1")
	}
	if n.PricePerNight <= 0 {
		return NewValidationError("price_per_night must be positive")
	}
	if n.TaxRate < 0 || n.TaxRate >= 1 {
		return NewValidationError("tax_rate must be in [0, 1)")
	}
	if n.ServiceFeeRate < 0 || n.ServiceFeeRate >= 1 {
		return NewValidationError("service_fee_rate must be in [0, 1)")
	}
	return nil
}

// HotelPatch lists the owner-editable hotel fields. Room counts belong to the
// inventory ledger and cannot be patched.
type HotelPatch struct {
	Name           *string
	Description    *string
	PricePerNight  *float64
	TaxRate        *float64
	ServiceFeeRate *float64
	IsActive       *bool
}

func (p HotelPatch) Apply(h *Hotel) error {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return NewValidationError("hotel name is required")
		}
		h.Name = *p.Name
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.PricePerNight != nil {
		if *p.PricePerNight <= 0 {
			return NewValidationError("price_per_night must be positive")
		}
		h.PricePerNight = *p.PricePerNight
	}
	if p.TaxRate != nil {
		if *p.TaxRate < 0 || *p.TaxRate >= 1 {
			return NewValidationError("tax_rate must be in [0, 1)")
		}
		h.TaxRate = *p.TaxRate
	}
	if p.ServiceFeeRate != nil {
		if *p.ServiceFeeRate < 0 || *p.ServiceFeeRate >= 1 {
			return NewValidationError("service_fee_rate must be in [0, 1)")
		}
		h.ServiceFeeRate = *p.ServiceFeeRate
	}
	if p.IsActive != nil {
		h.IsActive = *p.IsActive
	}
	return nil
}
