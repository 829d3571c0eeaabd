package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

const bookingColumns = `b.id, b.reference, b.user_id, b.hotel_id, b.room_type_id, b.check_in_date, b.check_out_date,
	b.nights, b.guests, b.room_rate, b.subtotal, b.taxes, b.service_fees, b.discount_amount, b.total_amount,
	b.total_price, b.currency, b.status, b.payment_status, b.paid_amount, b.check_in_code, b.special_requests,
	b.arrival_time, b.early_checkin_requested, b.late_checkout_requested, b.actual_check_in, b.actual_check_out,
	b.cancellation_reason, b.cancelled_at, b.refund_amount, b.confirmed_at, b.expires_at, b.created_at,
	b.updated_at, b.version`

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
	INSERT INTO bookings (
		id, reference, user_id, hotel_id, room_type_id, check_in_date, check_out_date,
		nights, guests, room_rate, subtotal, taxes, service_fees, discount_amount, total_amount,
		total_price, currency, status, payment_status, paid_amount, special_requests,
		arrival_time, early_checkin_requested, late_checkout_requested, expires_at,
		created_at, updated_at, version
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28)
	`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.Reference, b.UserID, b.HotelID, b.RoomTypeID, b.CheckInDate, b.CheckOutDate,
		b.Nights, b.Guests, b.Price.RoomRate, b.Price.Subtotal, b.Price.Taxes, b.Price.ServiceFees,
		b.Price.DiscountAmount, b.Price.TotalAmount, b.TotalPrice, b.Currency, b.Status, b.PaymentStatus,
		b.PaidAmount, b.SpecialRequests, b.ArrivalTime, b.EarlyCheckinRequested, b.LateCheckoutRequested,
		b.ExpiresAt, b.CreatedAt, b.UpdatedAt, b.Version,
	)
	return mapError(err, "insert booking")
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, bookingID)
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1 FOR UPDATE`, bookingID)
}

func (r *BookingRepository) GetByCheckInCode(ctx context.Context, code string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.check_in_code = $1`, code)
}

func (r *BookingRepository) getOne(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("booking %v", arg))
	}
	return b, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
}

func (r *BookingRepository) ListByHotelOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Booking, error) {
	query := `
	SELECT ` + bookingColumns + `
	FROM bookings b
	JOIN hotels h ON h.id = b.hotel_id
	WHERE h.owner_id = $1
	ORDER BY b.created_at DESC
	`
	return r.list(ctx, query, ownerID)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list bookings")
	}

	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}

	return bookings, rows.Err()
}

// Update writes every mutable column. A stale version means another writer got
// there first and the caller's view is out of date.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `
	UPDATE bookings
	SET guests = $1,
		status = $2,
		payment_status = $3,
		paid_amount = $4,
		check_in_code = $5,
		special_requests = $6,
		arrival_time = $7,
		early_checkin_requested = $8,
		late_checkout_requested = $9,
		actual_check_in = $10,
		actual_check_out = $11,
		cancellation_reason = $12,
		cancelled_at = $13,
		refund_amount = $14,
		confirmed_at = $15,
		updated_at = $16,
		version = version + 1
	WHERE id = $17 AND version = $18
	`

	result, err := r.db.ExecContext(ctx, query,
		b.Guests, b.Status, b.PaymentStatus, b.PaidAmount, b.CheckInCode, b.SpecialRequests,
		b.ArrivalTime, b.EarlyCheckinRequested, b.LateCheckoutRequested, b.ActualCheckIn,
		b.ActualCheckOut, nullString(b.CancellationReason), b.CancelledAt, b.RefundAmount,
		b.ConfirmedAt, b.UpdatedAt, b.ID, b.Version,
	)
	if err != nil {
		return mapError(err, "update booking")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("optimistic lock failed on booking %s: %w", b.ID, domain.ErrConflict)
	}

	b.Version++
	return nil
}

func (r *BookingRepository) GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
	SELECT id FROM bookings
	WHERE status = 'PENDING' AND expires_at < $1
	ORDER BY expires_at
	LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b                  domain.Booking
		roomTypeID         uuid.NullUUID
		checkInCode        sql.NullString
		cancellationReason sql.NullString
		actualCheckIn      sql.NullTime
		actualCheckOut     sql.NullTime
		cancelledAt        sql.NullTime
		confirmedAt        sql.NullTime
		refundAmount       sql.NullFloat64
	)

	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.UserID,
		&b.HotelID,
		&roomTypeID,
		&b.CheckInDate,
		&b.CheckOutDate,
		&b.Nights,
		&b.Guests,
		&b.Price.RoomRate,
		&b.Price.Subtotal,
		&b.Price.Taxes,
		&b.Price.ServiceFees,
		&b.Price.DiscountAmount,
		&b.Price.TotalAmount,
		&b.TotalPrice,
		&b.Currency,
		&b.Status,
		&b.PaymentStatus,
		&b.PaidAmount,
		&checkInCode,
		&b.SpecialRequests,
		&b.ArrivalTime,
		&b.EarlyCheckinRequested,
		&b.LateCheckoutRequested,
		&actualCheckIn,
		&actualCheckOut,
		&cancellationReason,
		&cancelledAt,
		&refundAmount,
		&confirmedAt,
		&b.ExpiresAt,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}

	if roomTypeID.Valid {
		id := roomTypeID.UUID
		b.RoomTypeID = &id
	}
	if checkInCode.Valid {
		code := checkInCode.String
		b.CheckInCode = &code
	}
	b.CancellationReason = cancellationReason.String
	b.ActualCheckIn = timePtr(actualCheckIn)
	b.ActualCheckOut = timePtr(actualCheckOut)
	b.CancelledAt = timePtr(cancelledAt)
	b.ConfirmedAt = timePtr(confirmedAt)
	if refundAmount.Valid {
		amount := refundAmount.Float64
		b.RefundAmount = &amount
	}

	return &b, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
