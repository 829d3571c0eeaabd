package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
)

type refunder struct {
	uow     ports.UnitOfWork
	gateway ports.PaymentGateway
	now     func() time.Time
	log     logrus.FieldLogger
}

// refund pays back a payment flagged as refund-eligible. The gateway call runs
// outside any transaction; the local bookkeeping commits afterwards.
func (r *refunder) refund(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	p, err := r.uow.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status == domain.PaymentRefunded {
		return p, nil
	}
	if !p.RefundRequired || (p.Status != domain.PaymentPaid && p.Status != domain.PaymentPartiallyRefunded) {
		return nil, fmt.Errorf("%w: payment %s is not eligible for refund", domain.ErrConflict, p.ID)
	}

	amount := p.Retained()
	if p.RefundAmount != nil {
		amount = *p.RefundAmount
	}
	key := p.RefundKey()

	if p.Provider != domain.ProviderManual {
		refundID, err := r.gateway.Refund(ctx, ports.RefundRequest{
			TransactionID:  p.TransactionID,
			Amount:         amount,
			IdempotencyKey: key,
		})
		if err != nil {
			return nil, fmt.Errorf("gateway refund for %s: %w", p.TransactionID, err)
		}
		r.log.WithFields(logrus.Fields{
			"payment_id": p.ID,
			"refund_id":  refundID,
			"amount":     amount,
		}).Info("gateway refund issued")
	}

	var refunded *domain.Payment
	err = r.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		current, err := tx.Payments().GetByTransactionID(ctx, p.TransactionID)
		if err != nil {
			return err
		}
		// Another caller booked this refund already.
		if !current.RefundRequired || current.RefundKey() != key {
			refunded = current
			return nil
		}

		now := r.now()
		wanted := amount
		if current.RefundAmount != nil {
			wanted = *current.RefundAmount
		}
		current.RefundAmount = &amount
		current.MarkRefunded(now)
		// The flag grew while the gateway call was in flight.
		if domain.CompareAmounts(wanted, amount) > 0 {
			current.FlagPartialRefund(wanted-amount, current.RefundReason, now)
		}
		if err := tx.Payments().Update(ctx, current); err != nil {
			return err
		}

		if current.BookingID != nil {
			b, err := tx.Bookings().GetForUpdate(ctx, *current.BookingID)
			if err != nil {
				return err
			}
			// Only the booking's own settled payment drives its payment status.
			if current.Status == domain.PaymentRefunded && b.PaymentStatus == domain.PaymentPaid &&
				b.Status == domain.BookingCancelled {
				b.PaymentStatus = domain.PaymentRefunded
				b.UpdatedAt = now
				if err := tx.Bookings().Update(ctx, b); err != nil {
					return err
				}
			}
		}

		refunded = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refunded, nil
}
