package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/adapter/codegen"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/services"
)

type updateBookingRequest struct {
	Guests                *int    `json:"guests" validate:"omitempty,min=1"`
	SpecialRequests       *string `json:"special_requests" validate:"omitempty,max=1000"`
	ArrivalTime           *string `json:"arrival_time" validate:"omitempty,max=32"`
	EarlyCheckinRequested *bool   `json:"early_checkin_requested"`
	LateCheckoutRequested *bool   `json:"late_checkout_requested"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type BookingHandler struct {
	svc      *services.BookingService
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewBookingHandler(svc *services.BookingService, validate *validator.Validate, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{svc: svc, validate: validate, log: log}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	var req services.CreateBookingRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	booking, err := h.svc.CreateBooking(r.Context(), principal, req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	bookings, err := h.svc.ListUserBookings(r.Context(), principal)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bookings))
}

func (h *BookingHandler) ListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	bookings, err := h.svc.ListOwnerBookings(r.Context(), principal)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bookings))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.GetBooking)
}

func (h *BookingHandler) PaymentRequired(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	req, err := h.svc.PaymentRequired(r.Context(), principal, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req updateBookingRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	patch := domain.BookingPatch{
		Guests:                req.Guests,
		SpecialRequests:       req.SpecialRequests,
		ArrivalTime:           req.ArrivalTime,
		EarlyCheckinRequested: req.EarlyCheckinRequested,
		LateCheckoutRequested: req.LateCheckoutRequested,
	}

	h.withBooking(w, r, func(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Booking, error) {
		return h.svc.UpdateBooking(ctx, p, id, patch)
	})
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	reason := h.optionalReason(w, r)
	if reason == nil {
		return
	}

	h.withBooking(w, r, func(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Booking, error) {
		return h.svc.CancelBooking(ctx, p, id, *reason)
	})
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.ConfirmBooking)
}

func (h *BookingHandler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	reason := h.optionalReason(w, r)
	if reason == nil {
		return
	}

	h.withBooking(w, r, func(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Booking, error) {
		return h.svc.RejectBooking(ctx, p, id, *reason)
	})
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.CheckIn)
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.CheckOut)
}

func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.MarkNoShow)
}

func (h *BookingHandler) SelfCheckIn(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.SelfCheckIn)
}

func (h *BookingHandler) SelfCheckOut(w http.ResponseWriter, r *http.Request) {
	h.withBooking(w, r, h.svc.SelfCheckOut)
}

// QRCheckIn checks a guest in from the code on their confirmation.
func (h *BookingHandler) QRCheckIn(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	code := chi.URLParam(r, "code")

	if _, err := codegen.BookingIDFromCode(code); err != nil {
		writeError(w, h.log, err)
		return
	}

	booking, err := h.svc.CheckInByCode(r.Context(), principal, code)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) withBooking(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Principal, uuid.UUID) (*domain.Booking, error)) {
	principal, _ := PrincipalFrom(r.Context())
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	booking, err := fn(r.Context(), principal, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// optionalReason reads {"reason": "..."} when a body is present. It writes
// the error response itself and returns nil on failure.
func (h *BookingHandler) optionalReason(w http.ResponseWriter, r *http.Request) *string {
	var req reasonRequest
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if err := decodeJSON(w, r, h.validate, &req); err != nil {
			writeError(w, h.log, err)
			return nil
		}
	}
	return &req.Reason
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
