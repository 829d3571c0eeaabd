package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

type HotelRepository interface {
	Create(ctx context.Context, hotel *domain.Hotel) error
	GetByID(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error)
	GetForUpdate(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Hotel, error)
	UpdateProfile(ctx context.Context, hotel *domain.Hotel) error
	// DecrementAvailable fails with domain.ErrInsufficientInventory when no room is left.
	DecrementAvailable(ctx context.Context, hotelID uuid.UUID) error
	// IncrementAvailable never raises available_rooms above total_rooms.
	IncrementAvailable(ctx context.Context, hotelID uuid.UUID) error
	UpdateRating(ctx context.Context, hotelID uuid.UUID, rating float64, totalReviews int) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetByCheckInCode(ctx context.Context, code string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	ListByHotelOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Booking, error)
	// Update is guarded by the booking version and bumps it on success.
	Update(ctx context.Context, booking *domain.Booking) error
	GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	GetActiveByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, reviewID uuid.UUID) (*domain.Review, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error)
	ListByHotel(ctx context.Context, hotelID uuid.UUID) ([]domain.Review, error)
	RatingsByHotel(ctx context.Context, hotelID uuid.UUID) ([]int, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, reviewID uuid.UUID) error
}

type Store interface {
	Hotels() HotelRepository
	Bookings() BookingRepository
	Payments() PaymentRepository
	Reviews() ReviewRepository
}

// UnitOfWork runs fn against a transactional Store. Every write made through
// tx commits together or not at all.
type UnitOfWork interface {
	Store
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
