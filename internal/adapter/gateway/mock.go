package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/xeipuuv/gojsonschema"
)

const mockWebhookSchema = `{
	"type": "object",
	"required": ["transaction_id", "status"],
	"properties": {
		"transaction_id": {"type": "string", "minLength": 1},
		"booking_id": {"type": "string", "format": "uuid"},
		"status": {"type": "string", "enum": ["SUCCEEDED", "FAILED", "PENDING"]},
		"amount": {"type": "number", "minimum": 0},
		"currency": {"type": "string"},
		"failure_reason": {"type": "string"}
	}
}`

type mockWebhook struct {
	TransactionID string  `json:"transaction_id"`
	BookingID     string  `json:"booking_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	FailureReason string  `json:"failure_reason"`
}

type mockIntent struct {
	status   domain.GatewayStatus
	amount   float64
	currency string
	metadata map[string]string
}

// MockGateway is an in-process payment provider for local runs and tests.
// Intents settle with the default status unless SetStatus says otherwise. Webhooks
// are JSON bodies signed with a hex HMAC-SHA256 of the payload.
type MockGateway struct {
	mu            sync.Mutex
	intents       map[string]*mockIntent
	defaultStatus domain.GatewayStatus
	secret        string
	schema        *gojsonschema.Schema
}

func NewMockGateway(webhookSecret string, defaultStatus domain.GatewayStatus) (*MockGateway, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(mockWebhookSchema))
	if err != nil {
		return nil, fmt.Errorf("compile webhook schema: %w", err)
	}
	if defaultStatus == "" {
		defaultStatus = domain.GatewaySucceeded
	}

	return &MockGateway{
		intents:       make(map[string]*mockIntent),
		defaultStatus: defaultStatus,
		secret:        webhookSecret,
		schema:        schema,
	}, nil
}

func (g *MockGateway) Provider() string {
	return domain.ProviderMock
}

func (g *MockGateway) CreateIntent(_ context.Context, req ports.IntentRequest) (*ports.Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	id := "mock_pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	g.mu.Lock()
	g.intents[id] = &mockIntent{
		status:   g.defaultStatus,
		amount:   req.Amount,
		currency: req.Currency,
		metadata: req.Metadata,
	}
	g.mu.Unlock()

	return &ports.Intent{
		ID:           id,
		Status:       domain.GatewayPending,
		ClientSecret: id + "_secret",
	}, nil
}

// SetStatus fixes the outcome Retrieve reports for an intent.
func (g *MockGateway) SetStatus(transactionID string, status domain.GatewayStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if intent, ok := g.intents[transactionID]; ok {
		intent.status = status
	}
}

func (g *MockGateway) Retrieve(_ context.Context, transactionID string) (*ports.IntentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[transactionID]
	if !ok {
		return nil, fmt.Errorf("intent %s: %w", transactionID, domain.ErrNotFound)
	}

	return &ports.IntentStatus{
		ID:       transactionID,
		Status:   intent.status,
		Amount:   intent.amount,
		Currency: intent.currency,
		Metadata: intent.metadata,
	}, nil
}

func (g *MockGateway) Refund(_ context.Context, req ports.RefundRequest) (string, error) {
	return "mock_re_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16] + "_" + req.TransactionID, nil
}

func (g *MockGateway) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if g.secret != "" && !hmac.Equal([]byte(g.Sign(payload)), []byte(signature)) {
		return nil, fmt.Errorf("%w: bad webhook signature", domain.ErrUnauthorized)
	}

	result, err := g.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, domain.NewValidationError("webhook payload is not JSON: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, domain.NewValidationError("webhook payload: %s", strings.Join(msgs, "; "))
	}

	var body mockWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, domain.NewValidationError("webhook payload: %v", err)
	}

	event := &domain.PaymentEvent{
		TransactionID: body.TransactionID,
		Status:        domain.GatewayStatus(body.Status),
		Amount:        body.Amount,
		Currency:      body.Currency,
		FailureReason: body.FailureReason,
	}
	if body.BookingID != "" {
		id, err := uuid.Parse(body.BookingID)
		if err != nil {
			return nil, domain.NewValidationError("webhook booking id: %v", err)
		}
		event.BookingID = &id
	}

	return event, nil
}

// Sign returns the signature ParseWebhook expects for payload.
func (g *MockGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
