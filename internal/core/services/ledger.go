package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/srgjo27/hotel_booking/internal/platform/metrics"
)

// InventoryLedger is the only writer of a hotel's available_rooms counter.
// Callers pass the transactional hotel repository so that every ledger
// movement commits or rolls back with the booking transition that caused it.
type InventoryLedger struct {
	log logrus.FieldLogger
}

func NewInventoryLedger(log logrus.FieldLogger) *InventoryLedger {
	return &InventoryLedger{log: log}
}

func (l *InventoryLedger) Reserve(ctx context.Context, hotels ports.HotelRepository, hotelID uuid.UUID) error {
	err := hotels.DecrementAvailable(ctx, hotelID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientInventory) {
			metrics.IncLedger("reserve", "insufficient")
			return fmt.Errorf("reserve room at hotel %s: %w", hotelID, err)
		}
		metrics.IncLedger("reserve", "error")
		return fmt.Errorf("reserve room at hotel %s: %w", hotelID, err)
	}

	metrics.IncLedger("reserve", "ok")
	l.log.WithField("hotel_id", hotelID).Debug("room reserved")
	return nil
}

func (l *InventoryLedger) Release(ctx context.Context, hotels ports.HotelRepository, hotelID uuid.UUID) error {
	if err := hotels.IncrementAvailable(ctx, hotelID); err != nil {
		metrics.IncLedger("release", "error")
		return fmt.Errorf("release room at hotel %s: %w", hotelID, err)
	}

	metrics.IncLedger("release", "ok")
	l.log.WithField("hotel_id", hotelID).Debug("room released")
	return nil
}

// apply runs the ledger effect a planned transition requires.
func (l *InventoryLedger) apply(ctx context.Context, hotels ports.HotelRepository, hotelID uuid.UUID, effect domain.InventoryEffect) error {
	switch effect {
	case domain.InventoryReserve:
		return l.Reserve(ctx, hotels, hotelID)
	case domain.InventoryRelease:
		return l.Release(ctx, hotels, hotelID)
	default:
		return nil
	}
}
