package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

type IntentRequest struct {
	Amount      float64
	Currency    string
	CustomerID  string
	Description string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	Status       domain.GatewayStatus
	ClientSecret string
}

type IntentStatus struct {
	ID       string
	Status   domain.GatewayStatus
	Amount   float64
	Currency string
	Metadata map[string]string
}

// RefundRequest gives back part or all of a captured payment. Calls sharing an
// IdempotencyKey create at most one refund at the provider.
type RefundRequest struct {
	TransactionID  string
	Amount         float64
	IdempotencyKey string
}

type PaymentGateway interface {
	Provider() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	Retrieve(ctx context.Context, transactionID string) (*IntentStatus, error)
	Refund(ctx context.Context, req RefundRequest) (string, error)
	ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error)
}

type CodeGenerator interface {
	Generate(bookingID, userID, hotelID uuid.UUID) (string, error)
}

// TimeoutScheduler is a durable delayed queue of payment deadlines keyed by booking id.
type TimeoutScheduler interface {
	Schedule(ctx context.Context, bookingID uuid.UUID, at time.Time) error
	Due(ctx context.Context, now time.Time, limit int64) ([]uuid.UUID, error)
	// Claim removes the entry and reports whether this caller owns it.
	Claim(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type HotelCache interface {
	Get(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error)
	Set(ctx context.Context, hotel *domain.Hotel) error
	Invalidate(ctx context.Context, hotelID uuid.UUID) error
}
