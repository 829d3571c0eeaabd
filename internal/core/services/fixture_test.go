package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/adapter/repository/memory"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/srgjo27/hotel_booking/internal/core/ports/mocks"
	"github.com/srgjo27/hotel_booking/internal/core/services"
	"github.com/srgjo27/hotel_booking/internal/platform/logger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	codes     *mocks.CodeGenerator
	gateway   *mocks.PaymentGateway
	scheduler *mocks.TimeoutScheduler
	cache     *mocks.HotelCache

	bookings *services.BookingService
	payments *services.PaymentService
	reviews  *services.ReviewService
	hotels   *services.HotelService

	owner domain.Principal
	guest domain.Principal
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, nil)
}

// newFixtureWithCache wires the services over the in-memory store. A nil cache
// gets a permissive mock.
func newFixtureWithCache(t *testing.T, cache ports.HotelCache) *fixture {
	f := &fixture{
		store:     memory.NewStore(),
		codes:     mocks.NewCodeGenerator(t),
		gateway:   mocks.NewPaymentGateway(t),
		scheduler: mocks.NewTimeoutScheduler(t),
		owner:     domain.Principal{UserID: uuid.New(), Role: domain.RoleOwner},
		guest:     domain.Principal{UserID: uuid.New(), Role: domain.RoleUser},
	}

	if cache == nil {
		f.cache = mocks.NewHotelCache(t)
		f.cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()
		cache = f.cache
	}

	f.scheduler.On("Schedule", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.gateway.On("Provider").Return(domain.ProviderMock).Maybe()

	log := logger.Discard()
	ledger := services.NewInventoryLedger(log)
	clock := func() time.Time { return fixedNow }

	f.bookings = services.NewBookingService(f.store, ledger, f.codes, f.gateway, f.scheduler, cache,
		services.BookingConfig{PaymentTimeout: 10 * time.Minute, Currency: "USD"}, log)
	f.bookings.SetClock(clock)

	f.payments = services.NewPaymentService(f.store, ledger, f.codes, f.gateway, cache, log)
	f.payments.SetClock(clock)

	f.reviews = services.NewReviewService(f.store, cache, log)
	f.reviews.SetClock(clock)

	f.hotels = services.NewHotelService(f.store, cache, "USD", log)

	return f
}

func (f *fixture) seedHotel(t *testing.T, total, available int, price float64) *domain.Hotel {
	h := &domain.Hotel{
		ID:             uuid.New(),
		OwnerID:        f.owner.UserID,
		Name:           "Seaside Hotel",
		City:           "Lisbon",
		Country:        "PT",
		TotalRooms:     total,
		AvailableRooms: available,
		PricePerNight:  price,
		Currency:       "USD",
		IsActive:       true,
		CreatedAt:      fixedNow,
		UpdatedAt:      fixedNow,
	}
	require.NoError(t, f.store.Hotels().Create(context.Background(), h))
	return h
}

func (f *fixture) createBooking(t *testing.T, hotelID uuid.UUID) *domain.Booking {
	return f.createBookingFor(t, f.guest, hotelID)
}

func (f *fixture) createBookingFor(t *testing.T, guest domain.Principal, hotelID uuid.UUID) *domain.Booking {
	b, err := f.bookings.CreateBooking(context.Background(), guest, services.CreateBookingRequest{
		HotelID:      hotelID.String(),
		CheckInDate:  "2025-01-01",
		CheckOutDate: "2025-01-03",
		Guests:       2,
	})
	require.NoError(t, err)
	return b
}

// seedPendingPayment records the intent a gateway would have issued for b.
func (f *fixture) seedPendingPayment(t *testing.T, b *domain.Booking, transactionID string) *domain.Payment {
	p := &domain.Payment{
		ID:            uuid.New(),
		Reference:     "PAY" + transactionID,
		TransactionID: transactionID,
		UserID:        b.UserID,
		BookingID:     &b.ID,
		Amount:        b.Price.TotalAmount,
		Currency:      b.Currency,
		Status:        domain.PaymentPending,
		Provider:      domain.ProviderMock,
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
	}
	require.NoError(t, f.store.Payments().Create(context.Background(), p))
	return p
}

func (f *fixture) expectCode(b *domain.Booking, code string) {
	f.codes.On("Generate", b.ID, b.UserID, b.HotelID).Return(code, nil).Once()
}

func (f *fixture) hotel(t *testing.T, id uuid.UUID) *domain.Hotel {
	h, err := f.store.Hotels().GetByID(context.Background(), id)
	require.NoError(t, err)
	return h
}

func (f *fixture) booking(t *testing.T, id uuid.UUID) *domain.Booking {
	b, err := f.store.Bookings().GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) payment(t *testing.T, transactionID string) *domain.Payment {
	p, err := f.store.Payments().GetByTransactionID(context.Background(), transactionID)
	require.NoError(t, err)
	return p
}

func succeeded(txID string, amount float64) *domain.PaymentEvent {
	return &domain.PaymentEvent{TransactionID: txID, Status: domain.GatewaySucceeded, Amount: amount, Currency: "USD"}
}

func refundOf(txID string, amount float64, key string) ports.RefundRequest {
	return ports.RefundRequest{TransactionID: txID, Amount: amount, IdempotencyKey: key}
}

func failed(txID, reason string) *domain.PaymentEvent {
	return &domain.PaymentEvent{TransactionID: txID, Status: domain.GatewayFailed, FailureReason: reason}
}
