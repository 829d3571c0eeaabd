package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// StripeGateway talks to Stripe PaymentIntents. Amounts cross the boundary in
// the currency's minor unit.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeGateway{api: api, webhookSecret: cfg.WebhookSecret}, nil
}

func (g *StripeGateway) Provider() string {
	return domain.ProviderStripe
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req ports.IntentRequest) (*ports.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.CustomerID != "" {
		params.AddMetadata("customer_id", req.CustomerID)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return &ports.Intent{
		ID:           pi.ID,
		Status:       MapStripeStatus(pi),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (g *StripeGateway) Retrieve(ctx context.Context, transactionID string) (*ports.IntentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(transactionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve payment intent %s: %w", transactionID, err)
	}

	return &ports.IntentStatus{
		ID:       pi.ID,
		Status:   MapStripeStatus(pi),
		Amount:   fromMinorUnits(pi.Amount),
		Currency: strings.ToUpper(string(pi.Currency)),
		Metadata: pi.Metadata,
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, req ports.RefundRequest) (string, error) {
	params := refundParams(req)
	params.Context = ctx

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund %s: %w", req.TransactionID, err)
	}
	return refund.ID, nil
}

// refundParams always carries an idempotency key, falling back to one per
// transaction.
func refundParams(req ports.RefundRequest) *stripe.RefundParams {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.TransactionID),
	}
	if req.Amount > 0 {
		params.Amount = stripe.Int64(toMinorUnits(req.Amount))
	}

	key := req.IdempotencyKey
	if key == "" {
		key = "refund_" + req.TransactionID
	}
	params.SetIdempotencyKey(key)
	return params
}

// ParseWebhook verifies the Stripe-Signature header and translates payment
// intent events. Other event types return a nil event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret not configured", domain.ErrUnauthorized)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, domain.NewValidationError("decode payment intent: %v", err)
	}

	return stripeEvent(&pi), nil
}

func stripeEvent(pi *stripe.PaymentIntent) *domain.PaymentEvent {
	ev := &domain.PaymentEvent{
		TransactionID: pi.ID,
		Status:        MapStripeStatus(pi),
		Amount:        fromMinorUnits(pi.Amount),
		Currency:      strings.ToUpper(string(pi.Currency)),
	}
	if raw, ok := pi.Metadata["booking_id"]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			ev.BookingID = &id
		}
	}
	if pi.LastPaymentError != nil {
		ev.FailureReason = pi.LastPaymentError.Msg
	}
	return ev
}

// MapStripeStatus folds Stripe's intent states into the three outcomes the
// reconciler understands.
func MapStripeStatus(pi *stripe.PaymentIntent) domain.GatewayStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.GatewaySucceeded
	case stripe.PaymentIntentStatusCanceled:
		return domain.GatewayFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if pi.LastPaymentError != nil {
			return domain.GatewayFailed
		}
		return domain.GatewayPending
	default:
		return domain.GatewayPending
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
