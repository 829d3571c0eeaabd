package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/adapter/repository/memory"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHotel(t *testing.T, s *memory.Store, total, available int) *domain.Hotel {
	h := &domain.Hotel{ID: uuid.New(), OwnerID: uuid.New(), Name: "Dockside", TotalRooms: total, AvailableRooms: available, IsActive: true}
	require.NoError(t, s.Hotels().Create(context.Background(), h))
	return h
}

func TestWithinTx_RollbackRestoresState(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	h := seedHotel(t, s, 5, 5)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if err := tx.Hotels().DecrementAvailable(ctx, h.ID); err != nil {
			return err
		}
		b := &domain.Booking{ID: uuid.New(), HotelID: h.ID, Status: domain.BookingConfirmed}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)

	got, err := s.Hotels().GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailableRooms)

	bookings, err := s.Bookings().ListByHotelOwner(ctx, h.OwnerID)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestWithinTx_Commit(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	h := seedHotel(t, s, 5, 5)

	err := s.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		return tx.Hotels().DecrementAvailable(ctx, h.ID)
	})

	require.NoError(t, err)
	got, err := s.Hotels().GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.AvailableRooms)
}

func TestWithinTx_OutsideReadsSeeCommittedState(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	h := seedHotel(t, s, 1, 1)

	decremented := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
			if err := tx.Hotels().DecrementAvailable(ctx, h.ID); err != nil {
				return err
			}
			inside, err := tx.Hotels().GetByID(ctx, h.ID)
			if err != nil {
				return err
			}
			if inside.AvailableRooms != 0 {
				return errors.New("transaction does not see its own write")
			}
			close(decremented)
			<-release
			return nil
		})
	}()

	<-decremented
	during, err := s.Hotels().GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, during.AvailableRooms, "uncommitted decrement is not visible")

	close(release)
	require.NoError(t, <-done)

	after, err := s.Hotels().GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.AvailableRooms)
}

func TestHotelInventory_Bounds(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	h := seedHotel(t, s, 2, 1)

	require.NoError(t, s.Hotels().DecrementAvailable(ctx, h.ID))
	assert.ErrorIs(t, s.Hotels().DecrementAvailable(ctx, h.ID), domain.ErrInsufficientInventory)

	require.NoError(t, s.Hotels().IncrementAvailable(ctx, h.ID))
	require.NoError(t, s.Hotels().IncrementAvailable(ctx, h.ID))
	require.NoError(t, s.Hotels().IncrementAvailable(ctx, h.ID))

	got, err := s.Hotels().GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableRooms, "release never exceeds total rooms")

	assert.ErrorIs(t, s.Hotels().DecrementAvailable(ctx, uuid.New()), domain.ErrNotFound)
}

func TestBookingUpdate_VersionGuard(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	b := &domain.Booking{ID: uuid.New(), Status: domain.BookingPending}
	require.NoError(t, s.Bookings().Create(ctx, b))

	first, err := s.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	stale, err := s.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)

	first.Status = domain.BookingConfirmed
	require.NoError(t, s.Bookings().Update(ctx, first))
	assert.Equal(t, 1, first.Version)

	stale.Status = domain.BookingCancelled
	assert.ErrorIs(t, s.Bookings().Update(ctx, stale), domain.ErrConflict)

	got, err := s.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestBookingUpdate_UniqueCheckInCode(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	code := "BOOKING_A"

	a := &domain.Booking{ID: uuid.New(), CheckInCode: &code}
	b := &domain.Booking{ID: uuid.New()}
	require.NoError(t, s.Bookings().Create(ctx, a))
	require.NoError(t, s.Bookings().Create(ctx, b))

	b.CheckInCode = &code
	assert.ErrorIs(t, s.Bookings().Update(ctx, b), domain.ErrConflict)

	found, err := s.Bookings().GetByCheckInCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
}

func TestGetExpiredPending(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	older := &domain.Booking{ID: uuid.New(), Status: domain.BookingPending, ExpiresAt: now.Add(-time.Hour)}
	newer := &domain.Booking{ID: uuid.New(), Status: domain.BookingPending, ExpiresAt: now.Add(-time.Minute)}
	future := &domain.Booking{ID: uuid.New(), Status: domain.BookingPending, ExpiresAt: now.Add(time.Minute)}
	confirmed := &domain.Booking{ID: uuid.New(), Status: domain.BookingConfirmed, ExpiresAt: now.Add(-time.Hour)}
	for _, b := range []*domain.Booking{older, newer, future, confirmed} {
		require.NoError(t, s.Bookings().Create(ctx, b))
	}

	ids, err := s.Bookings().GetExpiredPending(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{older.ID, newer.ID}, ids)

	ids, err = s.Bookings().GetExpiredPending(ctx, now, 1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{older.ID}, ids)
}

func TestPayments_ActiveSlot(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	bookingID := uuid.New()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	failed := &domain.Payment{ID: uuid.New(), TransactionID: "pi_1", BookingID: &bookingID, Status: domain.PaymentFailed, CreatedAt: created}
	flagged := &domain.Payment{ID: uuid.New(), TransactionID: "pi_2", BookingID: &bookingID, Status: domain.PaymentPaid, RefundRequired: true, CreatedAt: created.Add(time.Minute)}
	require.NoError(t, s.Payments().Create(ctx, failed))
	require.NoError(t, s.Payments().Create(ctx, flagged))

	_, err := s.Payments().GetActiveByBooking(ctx, bookingID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	paid := &domain.Payment{ID: uuid.New(), TransactionID: "pi_3", BookingID: &bookingID, Status: domain.PaymentPaid, CreatedAt: created.Add(2 * time.Minute)}
	require.NoError(t, s.Payments().Create(ctx, paid))

	active, err := s.Payments().GetActiveByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, paid.ID, active.ID)

	dup := &domain.Payment{ID: uuid.New(), TransactionID: "pi_3"}
	err = s.Payments().Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrActivePaymentExists)
}

func TestPayments_SecondActivePaymentRejected(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	bookingID := uuid.New()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first := &domain.Payment{ID: uuid.New(), TransactionID: "pi_1", BookingID: &bookingID, Amount: 200, Status: domain.PaymentPending, CreatedAt: created}
	require.NoError(t, s.Payments().Create(ctx, first))

	second := &domain.Payment{ID: uuid.New(), TransactionID: "pi_2", BookingID: &bookingID, Amount: 200, Status: domain.PaymentPending, CreatedAt: created.Add(time.Minute)}
	err := s.Payments().Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrActivePaymentExists)

	second.FlagRefund("booking already has active payment pi_1", created)
	require.NoError(t, s.Payments().Create(ctx, second), "a payment flagged for full refund stays outside the slot")

	second.RefundRequired = false
	assert.ErrorIs(t, s.Payments().Update(ctx, second), domain.ErrActivePaymentExists)

	active, err := s.Payments().GetActiveByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
}

func TestReviews_OnePerBooking(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	hotelID, bookingID := uuid.New(), uuid.New()

	require.NoError(t, s.Reviews().Create(ctx, &domain.Review{ID: uuid.New(), HotelID: hotelID, BookingID: bookingID, Rating: 4}))
	assert.ErrorIs(t, s.Reviews().Create(ctx, &domain.Review{ID: uuid.New(), HotelID: hotelID, BookingID: bookingID, Rating: 2}), domain.ErrConflict)

	ratings, err := s.Reviews().RatingsByHotel(ctx, hotelID)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ratings)
}
