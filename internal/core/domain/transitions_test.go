package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTransition_Table(t *testing.T) {
	tests := []struct {
		from   domain.BookingStatus
		to     domain.BookingStatus
		effect domain.InventoryEffect
		ok     bool
	}{
		{domain.BookingPending, domain.BookingConfirmed, domain.InventoryReserve, true},
		{domain.BookingPending, domain.BookingCancelled, domain.InventoryNone, true},
		{domain.BookingPending, domain.BookingNoShow, domain.InventoryNone, true},
		{domain.BookingPending, domain.BookingCheckedIn, 0, false},
		{domain.BookingConfirmed, domain.BookingCheckedIn, domain.InventoryNone, true},
		{domain.BookingConfirmed, domain.BookingCancelled, domain.InventoryRelease, true},
		{domain.BookingConfirmed, domain.BookingNoShow, domain.InventoryRelease, true},
		{domain.BookingConfirmed, domain.BookingCheckedOut, 0, false},
		{domain.BookingCheckedIn, domain.BookingCheckedOut, domain.InventoryNone, true},
		{domain.BookingCheckedIn, domain.BookingNoShow, 0, false},
		{domain.BookingCheckedIn, domain.BookingCancelled, 0, false},
		{domain.BookingCheckedOut, domain.BookingCancelled, 0, false},
		{domain.BookingCancelled, domain.BookingConfirmed, 0, false},
		{domain.BookingNoShow, domain.BookingCheckedIn, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			b := &domain.Booking{ID: uuid.New(), Status: tt.from}

			tr, err := domain.PlanTransition(b, tt.to)

			if !tt.ok {
				assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
				var terr *domain.TransitionError
				require.True(t, errors.As(err, &terr))
				assert.Equal(t, tt.from, terr.Current)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.effect, tr.Effect)
			assert.False(t, tr.Noop)
			assert.Equal(t, tt.from, b.Status, "planning leaves the booking untouched")
		})
	}
}

func TestPlanTransition_ReconfirmIsNoop(t *testing.T) {
	confirmedAt := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	b := &domain.Booking{ID: uuid.New(), Status: domain.BookingConfirmed, ConfirmedAt: &confirmedAt}

	tr, err := domain.PlanTransition(b, domain.BookingConfirmed)
	require.NoError(t, err)
	assert.True(t, tr.Noop)
	assert.Equal(t, domain.InventoryNone, tr.Effect)

	tr.Apply(b, confirmedAt.Add(time.Hour))
	assert.Equal(t, confirmedAt, *b.ConfirmedAt)
}

func TestTransitionApply_StampsTimestamps(t *testing.T) {
	at := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	b := &domain.Booking{ID: uuid.New(), Status: domain.BookingConfirmed}

	tr, err := domain.PlanTransition(b, domain.BookingCheckedIn)
	require.NoError(t, err)
	tr.Apply(b, at)

	assert.Equal(t, domain.BookingCheckedIn, b.Status)
	assert.Equal(t, at, *b.ActualCheckIn)
	assert.Equal(t, at, b.UpdatedAt)

	tr, err = domain.PlanTransition(b, domain.BookingCheckedOut)
	require.NoError(t, err)
	tr.Apply(b, at.Add(24*time.Hour))

	assert.Equal(t, domain.BookingCheckedOut, b.Status)
	assert.True(t, b.Status.IsTerminal())
	assert.NotNil(t, b.ActualCheckOut)
}

func TestTransitionError_ListsSources(t *testing.T) {
	b := &domain.Booking{ID: uuid.New(), Status: domain.BookingCancelled}

	_, err := domain.PlanTransition(b, domain.BookingCheckedOut)

	assert.ErrorContains(t, err, "from CANCELLED to CHECKED_OUT")
	assert.ErrorContains(t, err, "expected CHECKED_IN")
}

func TestInventoryEffect_String(t *testing.T) {
	assert.Equal(t, "reserve", domain.InventoryReserve.String())
	assert.Equal(t, "release", domain.InventoryRelease.String())
	assert.Equal(t, "none", domain.InventoryNone.String())
}
