package domain

import "time"

// InventoryEffect is the ledger operation a transition requires.
type InventoryEffect int

const (
	InventoryNone InventoryEffect = iota
	InventoryReserve
	InventoryRelease
)

func (e InventoryEffect) String() string {
	switch e {
	case InventoryReserve:
		return "reserve"
	case InventoryRelease:
		return "release"
	default:
		return "none"
	}
}

var transitionTable = map[BookingStatus]map[BookingStatus]InventoryEffect{
	BookingPending: {
		BookingConfirmed: InventoryReserve,
		BookingCancelled: InventoryNone,
		BookingNoShow:    InventoryNone,
	},
	BookingConfirmed: {
		BookingCheckedIn: InventoryNone,
		BookingCancelled: InventoryRelease,
		BookingNoShow:    InventoryRelease,
	},
	BookingCheckedIn: {
		BookingCheckedOut: InventoryNone,
	},
}

// Transition is a validated move through the booking lifecycle.
type Transition struct {
	From   BookingStatus
	To     BookingStatus
	Effect InventoryEffect
	// Noop is set for the idempotent re-confirm of a CONFIRMED booking.
	Noop bool
}

// PlanTransition checks the transition table without touching the booking.
func PlanTransition(b *Booking, to BookingStatus) (Transition, error) {
	if b.Status == BookingConfirmed && to == BookingConfirmed {
		return Transition{From: b.Status, To: to, Noop: true}, nil
	}

	effect, ok := transitionTable[b.Status][to]
	if !ok {
		return Transition{}, &TransitionError{
			BookingID: b.ID.String(),
			Current:   b.Status,
			Target:    to,
			Expected:  sourcesOf(to),
		}
	}

	return Transition{From: b.Status, To: to, Effect: effect}, nil
}

// Apply moves the booking into the target state and stamps the
// transition-specific fields. The ledger effect is left to the caller.
func (t Transition) Apply(b *Booking, at time.Time) {
	if t.Noop {
		return
	}

	b.Status = t.To
	b.UpdatedAt = at

	switch t.To {
	case BookingConfirmed:
		b.ConfirmedAt = &at
	case BookingCheckedIn:
		b.ActualCheckIn = &at
	case BookingCheckedOut:
		b.ActualCheckOut = &at
	case BookingCancelled, BookingNoShow:
		b.CancelledAt = &at
	}
}

func sourcesOf(to BookingStatus) []BookingStatus {
	var sources []BookingStatus
	for _, from := range []BookingStatus{BookingPending, BookingConfirmed, BookingCheckedIn} {
		if _, ok := transitionTable[from][to]; ok {
			sources = append(sources, from)
		}
	}
	return sources
}
