package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports/mocks"
	"github.com/srgjo27/hotel_booking/internal/core/services"
	"github.com/srgjo27/hotel_booking/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var afterDeadline = fixedNow.Add(11 * time.Minute)

func newWorker(f *fixture, scheduler *mocks.TimeoutScheduler, cfg services.TimeoutWorkerConfig) *services.TimeoutWorker {
	w := services.NewTimeoutWorker(f.payments, scheduler, f.store.Bookings(), cfg, logger.Discard())
	w.SetClock(func() time.Time { return afterDeadline })
	return w
}

func TestTimeoutWorker_ProcessDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hotel := f.seedHotel(t, 10, 10, 100)
	mine := f.createBooking(t, hotel.ID)
	theirs := f.createBooking(t, hotel.ID)
	ghost := uuid.New()

	scheduler := mocks.NewTimeoutScheduler(t)
	scheduler.On("Due", mock.Anything, afterDeadline, int64(50)).Return([]uuid.UUID{mine.ID, theirs.ID, ghost}, nil).Once()
	scheduler.On("Claim", mock.Anything, mine.ID).Return(true, nil).Once()
	scheduler.On("Claim", mock.Anything, theirs.ID).Return(false, nil).Once()
	scheduler.On("Claim", mock.Anything, ghost).Return(true, nil).Once()

	w := newWorker(f, scheduler, services.TimeoutWorkerConfig{BatchSize: 50})

	handled := w.ProcessDue(ctx)

	assert.Equal(t, 2, handled)
	cancelled := f.booking(t, mine.ID)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, "payment timeout", cancelled.CancellationReason)
	assert.Equal(t, domain.BookingPending, f.booking(t, theirs.ID).Status, "unclaimed entries belong to another worker")
	scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestTimeoutWorker_ProcessDue_ConfirmedBookingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hotel := f.seedHotel(t, 10, 10, 100)
	b := f.createBooking(t, hotel.ID)
	f.expectCode(b, "BOOKING_QR_1")

	_, err := f.bookings.ConfirmBooking(ctx, f.owner, b.ID)
	assert.NoError(t, err)

	scheduler := mocks.NewTimeoutScheduler(t)
	scheduler.On("Due", mock.Anything, afterDeadline, int64(100)).Return([]uuid.UUID{b.ID}, nil).Once()
	scheduler.On("Claim", mock.Anything, b.ID).Return(true, nil).Once()

	handled := newWorker(f, scheduler, services.TimeoutWorkerConfig{}).ProcessDue(ctx)

	assert.Equal(t, 1, handled)
	assert.Equal(t, domain.BookingConfirmed, f.booking(t, b.ID).Status)
	assert.Equal(t, 9, f.hotel(t, hotel.ID).AvailableRooms)
}

func TestTimeoutWorker_ProcessDue_SchedulerErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hotel := f.seedHotel(t, 10, 10, 100)
	b := f.createBooking(t, hotel.ID)

	scheduler := mocks.NewTimeoutScheduler(t)
	scheduler.On("Due", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()

	w := newWorker(f, scheduler, services.TimeoutWorkerConfig{})
	assert.Equal(t, 0, w.ProcessDue(ctx))

	scheduler.On("Due", mock.Anything, mock.Anything, mock.Anything).Return([]uuid.UUID{b.ID}, nil).Once()
	scheduler.On("Claim", mock.Anything, b.ID).Return(false, errors.New("redis down")).Once()

	assert.Equal(t, 0, w.ProcessDue(ctx))
	assert.Equal(t, domain.BookingPending, f.booking(t, b.ID).Status)
}

func TestTimeoutWorker_SweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hotel := f.seedHotel(t, 10, 10, 100)
	expired := f.createBooking(t, hotel.ID)
	paid := f.createBooking(t, hotel.ID)
	f.expectCode(paid, "BOOKING_QR_1")

	_, err := f.bookings.ConfirmBooking(ctx, f.owner, paid.ID)
	assert.NoError(t, err)

	w := newWorker(f, mocks.NewTimeoutScheduler(t), services.TimeoutWorkerConfig{})

	assert.Equal(t, 1, w.SweepExpired(ctx))
	assert.Equal(t, domain.BookingCancelled, f.booking(t, expired.ID).Status)
	assert.Equal(t, domain.BookingConfirmed, f.booking(t, paid.ID).Status)

	assert.Equal(t, 0, w.SweepExpired(ctx), "a second sweep finds nothing")
}

func TestTimeoutWorker_SweepExpired_NotYetDue(t *testing.T) {
	f := newFixture(t)
	hotel := f.seedHotel(t, 10, 10, 100)
	b := f.createBooking(t, hotel.ID)

	w := newWorker(f, mocks.NewTimeoutScheduler(t), services.TimeoutWorkerConfig{})
	w.SetClock(func() time.Time { return fixedNow.Add(5 * time.Minute) })

	assert.Equal(t, 0, w.SweepExpired(context.Background()))
	assert.Equal(t, domain.BookingPending, f.booking(t, b.ID).Status)
}

func TestTimeoutWorker_SweepExpired_RepositoryError(t *testing.T) {
	f := newFixture(t)

	bookings := mocks.NewBookingRepository(t)
	bookings.On("GetExpiredPending", mock.Anything, afterDeadline, 25).Return(nil, errors.New("connection reset")).Once()

	w := services.NewTimeoutWorker(f.payments, mocks.NewTimeoutScheduler(t), bookings,
		services.TimeoutWorkerConfig{BatchSize: 25}, logger.Discard())
	w.SetClock(func() time.Time { return afterDeadline })

	assert.Equal(t, 0, w.SweepExpired(context.Background()))
}

func TestTimeoutWorker_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)

	scheduler := mocks.NewTimeoutScheduler(t)
	scheduler.On("Due", mock.Anything, mock.Anything, mock.Anything).Return([]uuid.UUID{}, nil).Maybe()

	w := newWorker(f, scheduler, services.TimeoutWorkerConfig{
		PollInterval:  5 * time.Millisecond,
		SweepInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
