package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/srgjo27/hotel_booking/internal/core/ports"
)

type store struct {
	hotels   *HotelRepository
	bookings *BookingRepository
	payments *PaymentRepository
	reviews  *ReviewRepository
}

func newStore(db DBTX) *store {
	return &store{
		hotels:   NewHotelRepository(db),
		bookings: NewBookingRepository(db),
		payments: NewPaymentRepository(db),
		reviews:  NewReviewRepository(db),
	}
}

func (s *store) Hotels() ports.HotelRepository     { return s.hotels }
func (s *store) Bookings() ports.BookingRepository { return s.bookings }
func (s *store) Payments() ports.PaymentRepository { return s.payments }
func (s *store) Reviews() ports.ReviewRepository   { return s.reviews }

// UnitOfWork hands out repositories over the pool and runs transactional
// work on a single *sql.Tx.
type UnitOfWork struct {
	*store
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{store: newStore(db), db: db}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	if err := fn(ctx, newStore(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
