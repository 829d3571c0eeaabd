package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/srgjo27/hotel_booking/internal/platform/metrics"
)

// lifecycle drives every booking status change. It plans the move against the
// transition table, runs the matching ledger operation and persists the
// booking, all on the caller's transactional store.
type lifecycle struct {
	ledger *InventoryLedger
	codes  ports.CodeGenerator
	now    func() time.Time
	log    logrus.FieldLogger
}

func (m *lifecycle) transition(ctx context.Context, tx ports.Store, b *domain.Booking, to domain.BookingStatus, reason string) (domain.Transition, error) {
	t, err := domain.PlanTransition(b, to)
	if err != nil {
		return t, err
	}
	if t.Noop {
		return t, nil
	}

	if err := m.ledger.apply(ctx, tx.Hotels(), b.HotelID, t.Effect); err != nil {
		return t, err
	}

	now := m.now()
	t.Apply(b, now)

	if t.To == domain.BookingConfirmed && b.CheckInCode == nil {
		code, err := m.codes.Generate(b.ID, b.UserID, b.HotelID)
		if err != nil {
			return t, fmt.Errorf("generate check-in code: %w", err)
		}
		b.CheckInCode = &code
	}

	if t.To == domain.BookingCancelled || t.To == domain.BookingNoShow {
		b.CancellationReason = reason
	}

	if err := tx.Bookings().Update(ctx, b); err != nil {
		return t, fmt.Errorf("persist booking %s: %w", b.ID, err)
	}

	metrics.IncTransition(string(t.From), string(t.To))
	m.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"hotel_id":   b.HotelID,
		"from":       t.From,
		"to":         t.To,
		"inventory":  t.Effect.String(),
		"reason":     reason,
	}).Info("booking transition applied")

	return t, nil
}

// requireStatus narrows a transition to the single source state an action
// accepts, even when the table allows the target from elsewhere.
func requireStatus(b *domain.Booking, from, to domain.BookingStatus) error {
	if b.Status == from {
		return nil
	}
	return &domain.TransitionError{
		BookingID: b.ID.String(),
		Current:   b.Status,
		Target:    to,
		Expected:  []domain.BookingStatus{from},
	}
}

func invalidateHotel(ctx context.Context, cache ports.HotelCache, log logrus.FieldLogger, hotelID uuid.UUID) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, hotelID); err != nil {
		log.WithError(err).WithField("hotel_id", hotelID).Warn("failed to invalidate hotel cache")
	}
}
