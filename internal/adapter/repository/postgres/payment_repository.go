package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

const paymentColumns = `id, reference, transaction_id, user_id, booking_id, amount, currency, status, provider,
	client_secret, failure_reason, refund_required, refund_amount, refunded_amount, refund_reason, refunded_at,
	processed_at, created_at, updated_at`

// slotIndex is the partial unique index holding one active payment per booking.
const slotIndex = "idx_payments_booking_slot"

// slotPredicate mirrors the predicate of slotIndex.
const slotPredicate = `status IN ('PENDING', 'PAID', 'PARTIALLY_REFUNDED')
	AND (refund_required = FALSE OR refund_amount < amount - refunded_amount)`

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create relies on the unique transaction_id index; a second insert for the
// same gateway transaction surfaces as domain.ErrConflict. Losing the booking's
// active slot additionally matches domain.ErrActivePaymentExists.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
	INSERT INTO payments (` + paymentColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Reference, p.TransactionID, p.UserID, p.BookingID, p.Amount, p.Currency, p.Status,
		p.Provider, nullString(p.ClientSecret), nullString(p.FailureReason), p.RefundRequired,
		p.RefundAmount, p.RefundedAmount, nullString(p.RefundReason), p.RefundedAt, p.ProcessedAt,
		p.CreatedAt, p.UpdatedAt,
	)
	return mapPaymentError(err, "insert payment")
}

func mapPaymentError(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == slotIndex {
		return fmt.Errorf("%s: %w: %w", what, domain.ErrConflict, domain.ErrActivePaymentExists)
	}
	return mapError(err, what)
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID)
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
}

// GetActiveByBooking returns the payment occupying the booking's active slot.
// Payments flagged for a full refund no longer hold the slot.
func (r *PaymentRepository) GetActiveByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	query := `
	SELECT ` + paymentColumns + `
	FROM payments
	WHERE booking_id = $1 AND ` + slotPredicate + `
	ORDER BY created_at DESC
	LIMIT 1
	`
	return r.getOne(ctx, query, bookingID)
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("payment %v", arg))
	}
	return p, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, mapError(err, "list payments")
	}

	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}

	return payments, rows.Err()
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `
	UPDATE payments
	SET booking_id = $1,
		amount = $2,
		status = $3,
		failure_reason = $4,
		refund_required = $5,
		refund_amount = $6,
		refunded_amount = $7,
		refund_reason = $8,
		refunded_at = $9,
		processed_at = $10,
		updated_at = $11
	WHERE id = $12
	`

	result, err := r.db.ExecContext(ctx, query,
		p.BookingID, p.Amount, p.Status, nullString(p.FailureReason), p.RefundRequired, p.RefundAmount,
		p.RefundedAmount, nullString(p.RefundReason), p.RefundedAt, p.ProcessedAt, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return mapPaymentError(err, "update payment")
	}
	return expectOneRow(result, fmt.Sprintf("payment %s", p.ID))
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		p             domain.Payment
		bookingID     uuid.NullUUID
		clientSecret  sql.NullString
		failureReason sql.NullString
		refundAmount  sql.NullFloat64
		refundReason  sql.NullString
		refundedAt    sql.NullTime
		processedAt   sql.NullTime
	)

	err := row.Scan(
		&p.ID,
		&p.Reference,
		&p.TransactionID,
		&p.UserID,
		&bookingID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Provider,
		&clientSecret,
		&failureReason,
		&p.RefundRequired,
		&refundAmount,
		&p.RefundedAmount,
		&refundReason,
		&refundedAt,
		&processedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bookingID.Valid {
		id := bookingID.UUID
		p.BookingID = &id
	}
	p.ClientSecret = clientSecret.String
	p.FailureReason = failureReason.String
	p.RefundReason = refundReason.String
	if refundAmount.Valid {
		amount := refundAmount.Float64
		p.RefundAmount = &amount
	}
	p.RefundedAt = timePtr(refundedAt)
	p.ProcessedAt = timePtr(processedAt)

	return &p, nil
}
