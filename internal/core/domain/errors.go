package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidTransition     = errors.New("invalid booking transition")
	ErrInsufficientInventory = errors.New("no rooms available")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrDuplicatePaymentEvent = errors.New("payment event already applied")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("conflict")
	// ErrActivePaymentExists always travels together with ErrConflict.
	ErrActivePaymentExists   = errors.New("booking already has an active payment")
)

// TransitionError reports a state machine guard failure.
type TransitionError struct {
	BookingID string
	Current   BookingStatus
	Target    BookingStatus
	Expected  []BookingStatus
}

func (e *TransitionError) Error() string {
	expected := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		expected = append(expected, string(s))
	}

	return fmt.Sprintf("cannot move booking %s from %s to %s (expected %s)",
		e.BookingID, e.Current, e.Target, strings.Join(expected, " or "))
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
