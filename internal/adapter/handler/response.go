package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicatePaymentEvent):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := statusFor(err)

	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON reads a size-limited JSON body into dst and runs struct validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("invalid json body")
	}
	if validate == nil {
		return nil
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError("%s failed on the '%s' rule", fe.Field(), fe.Tag())
		}
		return domain.NewValidationError("%v", err)
	}
	return nil
}

func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("invalid %s", name)
	}
	return id, nil
}
