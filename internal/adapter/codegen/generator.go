package codegen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

const prefix = "BOOKING_"

// Generator builds the check-in code shown as a QR code on confirmation.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(bookingID, userID, hotelID uuid.UUID) (string, error) {
	if bookingID == uuid.Nil || userID == uuid.Nil || hotelID == uuid.Nil {
		return "", domain.NewValidationError("check-in code needs booking, user and hotel ids")
	}

	nonce := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s%s_%s_%s_%s", prefix, bookingID, userID, hotelID, nonce), nil
}

// BookingIDFromCode extracts the booking id from a code made by Generate.
func BookingIDFromCode(code string) (uuid.UUID, error) {
	if !strings.HasPrefix(code, prefix) {
		return uuid.Nil, domain.NewValidationError("invalid check-in code")
	}

	parts := strings.Split(strings.TrimPrefix(code, prefix), "_")
	if len(parts) != 4 {
		return uuid.Nil, domain.NewValidationError("invalid check-in code")
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, domain.NewValidationError("invalid check-in code")
	}
	return id, nil
}
