package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/services"
)

// Header names checked, in order, for a webhook signature.
var signatureHeaders = []string{"Stripe-Signature", "X-Webhook-Signature"}

type createIntentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

type PaymentHandler struct {
	svc      *services.PaymentService
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewPaymentHandler(svc *services.PaymentService, validate *validator.Validate, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{svc: svc, validate: validate, log: log}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	var req createIntentRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	payment, err := h.svc.CreatePaymentIntent(r.Context(), principal, uuid.MustParse(req.BookingID))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	// The confirm route shares its {id} segment with refund; here it is a transaction id.
	transactionID := chi.URLParam(r, "id")

	outcome, err := h.svc.ConfirmPayment(r.Context(), principal, transactionID)
	if err != nil {
		if outcome != nil && errors.Is(err, domain.ErrPaymentFailed) {
			writeJSON(w, http.StatusPaymentRequired, outcome)
			return
		}
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// Webhook is called by the payment provider and carries no bearer token.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.log, domain.NewValidationError("cannot read body"))
		return
	}

	var signature string
	for _, name := range signatureHeaders {
		if signature = r.Header.Get(name); signature != "" {
			break
		}
	}

	outcome, err := h.svc.HandleWebhook(r.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePaymentEvent) {
			writeJSON(w, http.StatusOK, map[string]bool{"received": true, "duplicate": true})
			return
		}
		writeError(w, h.log, err)
		return
	}
	if outcome == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	payment, err := h.svc.RefundPayment(r.Context(), principal, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	payments, err := h.svc.ListUserPayments(r.Context(), principal)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(payments))
}
