// Package memory is an in-process store for local runs and service tests.
// Transactions are serialized and work on a private copy of the data that is
// swapped in on commit, so reads outside a transaction only see committed
// state.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
)

type state struct {
	hotels   map[uuid.UUID]domain.Hotel
	bookings map[uuid.UUID]domain.Booking
	payments map[uuid.UUID]domain.Payment
	reviews  map[uuid.UUID]domain.Review
}

func (s *state) clone() *state {
	return &state{
		hotels:   maps.Clone(s.hotels),
		bookings: maps.Clone(s.bookings),
		payments: maps.Clone(s.payments),
		reviews:  maps.Clone(s.reviews),
	}
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state

	root *view
}

func NewStore() *Store {
	s := &Store{
		data: &state{
			hotels:   make(map[uuid.UUID]domain.Hotel),
			bookings: make(map[uuid.UUID]domain.Booking),
			payments: make(map[uuid.UUID]domain.Payment),
			reviews:  make(map[uuid.UUID]domain.Review),
		},
	}
	s.root = &view{store: s}
	return s
}

func (s *Store) Hotels() ports.HotelRepository     { return s.root.Hotels() }
func (s *Store) Bookings() ports.BookingRepository { return s.root.Bookings() }
func (s *Store) Payments() ports.PaymentRepository { return s.root.Payments() }
func (s *Store) Reviews() ports.ReviewRepository   { return s.root.Reviews() }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &view{store: s, tx: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

func (s *Store) read(fn func(d *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// write outside a transaction waits for any open transaction, whose commit
// would otherwise overwrite it.
func (s *Store) write(fn func(d *state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// view binds repositories to the committed data, or to a transaction's copy.
type view struct {
	store *Store
	tx    *state
}

func (v *view) Hotels() ports.HotelRepository     { return &hotelRepo{v} }
func (v *view) Bookings() ports.BookingRepository { return &bookingRepo{v} }
func (v *view) Payments() ports.PaymentRepository { return &paymentRepo{v} }
func (v *view) Reviews() ports.ReviewRepository   { return &reviewRepo{v} }

// A transaction's copy is only reachable while its goroutine holds txMu.
func (v *view) read(fn func(d *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	return v.store.read(fn)
}

func (v *view) write(fn func(d *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	return v.store.write(fn)
}
