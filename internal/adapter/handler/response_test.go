package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("hotel 1: %w", domain.ErrNotFound), http.StatusNotFound},
		{&domain.TransitionError{BookingID: "b", Current: domain.BookingCancelled, Target: domain.BookingConfirmed}, http.StatusConflict},
		{domain.ErrInsufficientInventory, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrInvalidDateRange, http.StatusBadRequest},
		{domain.NewValidationError("guests must be positive"), http.StatusBadRequest},
		{domain.ErrPaymentFailed, http.StatusPaymentRequired},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrDuplicatePaymentEvent, http.StatusOK},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, logger.Discard(), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", remoteIP(req))

	req.RemoteAddr = "10.1.2.3"
	assert.Equal(t, "10.1.2.3", remoteIP(req))
}
