package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestMapStripeStatus(t *testing.T) {
	tests := []struct {
		name string
		pi   *stripe.PaymentIntent
		want domain.GatewayStatus
	}{
		{"succeeded", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded}, domain.GatewaySucceeded},
		{"canceled", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusCanceled}, domain.GatewayFailed},
		{"awaiting method", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, domain.GatewayPending},
		{
			"declined card",
			&stripe.PaymentIntent{
				Status:           stripe.PaymentIntentStatusRequiresPaymentMethod,
				LastPaymentError: &stripe.Error{Msg: "card declined"},
			},
			domain.GatewayFailed,
		},
		{"processing", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusProcessing}, domain.GatewayPending},
		{"requires action", &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresAction}, domain.GatewayPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStripeStatus(tt.pi))
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(20000), toMinorUnits(200))
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	assert.Equal(t, 19.99, fromMinorUnits(1999))
}

func TestRefundParams_IdempotencyKey(t *testing.T) {
	params := refundParams(ports.RefundRequest{TransactionID: "pi_1", Amount: 12.5, IdempotencyKey: "refund_pi_1_0"})
	require.NotNil(t, params.IdempotencyKey)
	assert.Equal(t, "refund_pi_1_0", *params.IdempotencyKey)
	assert.Equal(t, "pi_1", *params.PaymentIntent)
	assert.Equal(t, int64(1250), *params.Amount)

	full := refundParams(ports.RefundRequest{TransactionID: "pi_2"})
	require.NotNil(t, full.IdempotencyKey)
	assert.Equal(t, "refund_pi_2", *full.IdempotencyKey)
	assert.Nil(t, full.Amount)
}

func TestStripeParseWebhook_Succeeded(t *testing.T) {
	g := &StripeGateway{webhookSecret: "whsec_test"}
	bookingID := uuid.New()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_123",
			"object": "payment_intent",
			"status": "succeeded",
			"amount": 20000,
			"currency": "usd",
			"metadata": {"booking_id": %q}
		}}
	}`, bookingID))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := g.ParseWebhook(signed.Payload, signed.Header)

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "pi_123", event.TransactionID)
	assert.Equal(t, domain.GatewaySucceeded, event.Status)
	assert.Equal(t, 200.0, event.Amount)
	assert.Equal(t, "USD", event.Currency)
	if assert.NotNil(t, event.BookingID) {
		assert.Equal(t, bookingID, *event.BookingID)
	}
}

func TestStripeParseWebhook_IgnoresOtherEvents(t *testing.T) {
	g := &StripeGateway{webhookSecret: "whsec_test"}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{}}}`),
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := g.ParseWebhook(signed.Payload, signed.Header)

	assert.NoError(t, err)
	assert.Nil(t, event)
}

func TestStripeParseWebhook_BadSignature(t *testing.T) {
	g := &StripeGateway{webhookSecret: "whsec_test"}

	_, err := g.ParseWebhook([]byte(`{"id":"evt_3"}`), "t=1,v1=deadbeef")

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestMockGateway_IntentLifecycle(t *testing.T) {
	g, err := NewMockGateway("", domain.GatewaySucceeded)
	require.NoError(t, err)

	ctx := context.Background()
	intent, err := g.CreateIntent(ctx, ports.IntentRequest{Amount: 200, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayPending, intent.Status)
	assert.NotEmpty(t, intent.ClientSecret)

	status, err := g.Retrieve(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewaySucceeded, status.Status)
	assert.Equal(t, 200.0, status.Amount)

	g.SetStatus(intent.ID, domain.GatewayFailed)
	status, err = g.Retrieve(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayFailed, status.Status)

	_, err = g.Retrieve(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMockGateway_ParseWebhook(t *testing.T) {
	g, err := NewMockGateway("secret", "")
	require.NoError(t, err)

	bookingID := uuid.New()
	payload, err := json.Marshal(map[string]any{
		"transaction_id": "mock_pi_1",
		"booking_id":     bookingID.String(),
		"status":         "FAILED",
		"amount":         150.5,
		"failure_reason": "insufficient funds",
	})
	require.NoError(t, err)

	event, err := g.ParseWebhook(payload, g.Sign(payload))

	require.NoError(t, err)
	assert.Equal(t, "mock_pi_1", event.TransactionID)
	assert.Equal(t, domain.GatewayFailed, event.Status)
	assert.Equal(t, "insufficient funds", event.FailureReason)
	assert.Equal(t, bookingID, *event.BookingID)
}

func TestMockGateway_ParseWebhookRejects(t *testing.T) {
	g, err := NewMockGateway("secret", "")
	require.NoError(t, err)

	valid := []byte(`{"transaction_id":"mock_pi_1","status":"SUCCEEDED"}`)
	_, err = g.ParseWebhook(valid, "not-a-signature")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	badStatus := []byte(`{"transaction_id":"mock_pi_1","status":"DONE"}`)
	_, err = g.ParseWebhook(badStatus, g.Sign(badStatus))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	missingID := []byte(`{"status":"SUCCEEDED"}`)
	_, err = g.ParseWebhook(missingID, g.Sign(missingID))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
