package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/srgjo27/hotel_booking/internal/platform/metrics"
)

const (
	reasonPaymentTimeout = "payment timeout"
	reasonNoInventory    = "no rooms left when payment settled"
)

type PaymentService struct {
	uow       ports.UnitOfWork
	gateway   ports.PaymentGateway
	cache     ports.HotelCache
	lifecycle *lifecycle
	refunds   *refunder
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewPaymentService(
	uow ports.UnitOfWork,
	ledger *InventoryLedger,
	codes ports.CodeGenerator,
	gateway ports.PaymentGateway,
	cache ports.HotelCache,
	log logrus.FieldLogger,
) *PaymentService {
	s := &PaymentService{
		uow:     uow,
		gateway: gateway,
		cache:   cache,
		now:     time.Now,
		log:     log,
	}
	s.lifecycle = &lifecycle{ledger: ledger, codes: codes, now: s.clock, log: log}
	s.refunds = &refunder{uow: uow, gateway: gateway, now: s.clock, log: log}

	return s
}

func (s *PaymentService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *PaymentService) clock() time.Time {
	return s.now().UTC()
}

// CreatePaymentIntent opens a gateway intent for a PENDING booking. A booking
// that already has a pending intent gets that intent back.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Payment, error) {
	b, err := s.uow.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != principal.UserID {
		return nil, domain.ErrForbidden
	}
	if b.Status != domain.BookingPending {
		return nil, fmt.Errorf("%w: booking %s is %s, not awaiting payment", domain.ErrConflict, b.ID, b.Status)
	}

	existing, err := s.uow.Payments().GetActiveByBooking(ctx, b.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status == domain.PaymentPending {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: booking %s is already paid", domain.ErrConflict, b.ID)
	}

	intent, err := s.gateway.CreateIntent(ctx, ports.IntentRequest{
		Amount:      b.Price.TotalAmount,
		Currency:    b.Currency,
		CustomerID:  principal.UserID.String(),
		Description: "Hotel booking " + b.Reference,
		Metadata: map[string]string{
			"booking_id": b.ID.String(),
			"user_id":    b.UserID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create intent: %v", domain.ErrPaymentFailed, err)
	}

	now := s.clock()
	payment := &domain.Payment{
		ID:            uuid.New(),
		Reference:     newPaymentReference(),
		TransactionID: intent.ID,
		UserID:        b.UserID,
		BookingID:     &b.ID,
		Amount:        b.Price.TotalAmount,
		Currency:      b.Currency,
		Status:        domain.PaymentPending,
		Provider:      s.gateway.Provider(),
		ClientSecret:  intent.ClientSecret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var created *domain.Payment
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		locked, err := tx.Bookings().GetForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.BookingPending {
			return fmt.Errorf("%w: booking %s is %s, not awaiting payment", domain.ErrConflict, locked.ID, locked.Status)
		}

		active, err := tx.Payments().GetActiveByBooking(ctx, locked.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if active != nil {
			created = active
			return nil
		}

		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":     b.ID,
		"transaction_id": created.TransactionID,
		"amount":         created.Amount,
	}).Info("payment intent created")

	return created, nil
}

// ConfirmPayment asks the gateway for the current state of an intent and
// reconciles it. A declined payment is returned together with ErrPaymentFailed.
func (s *PaymentService) ConfirmPayment(ctx context.Context, principal domain.Principal, transactionID string) (*domain.PaymentOutcome, error) {
	p, err := s.uow.Payments().GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if p.UserID != principal.UserID {
		return nil, domain.ErrForbidden
	}

	status, err := s.gateway.Retrieve(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve %s: %v", domain.ErrPaymentFailed, transactionID, err)
	}

	event := &domain.PaymentEvent{
		TransactionID: transactionID,
		BookingID:     p.BookingID,
		Status:        status.Status,
		Amount:        status.Amount,
		Currency:      status.Currency,
	}
	if status.Status == domain.GatewayFailed {
		event.FailureReason = "payment declined by provider"
	}

	outcome, err := s.ApplyPaymentEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	if outcome.PaymentStatus == domain.PaymentFailed {
		return outcome, fmt.Errorf("%w: transaction %s", domain.ErrPaymentFailed, transactionID)
	}

	return outcome, nil
}

// HandleWebhook verifies and applies an asynchronous gateway notification.
// Events the gateway adapter does not translate yield a nil outcome.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.PaymentOutcome, error) {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, nil
	}

	return s.ApplyPaymentEvent(ctx, event)
}

// ApplyPaymentEvent turns a gateway outcome into at most one booking
// transition. The transaction id is the idempotency key: once the payment
// carrying it is settled, later deliveries report the stored outcome.
func (s *PaymentService) ApplyPaymentEvent(ctx context.Context, event *domain.PaymentEvent) (*domain.PaymentOutcome, error) {
	if event == nil || event.TransactionID == "" {
		return nil, domain.NewValidationError("payment event requires a transaction id")
	}

	var (
		outcome *domain.PaymentOutcome
		effect  domain.InventoryEffect
		hotelID uuid.UUID
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		bookingID, err := s.resolveBooking(ctx, tx, event)
		if err != nil {
			return err
		}

		// The booking row lock serializes concurrent deliveries for one booking.
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		hotelID = b.HotelID

		p, err := s.paymentForEvent(ctx, tx, b, event)
		if err != nil {
			return err
		}

		if p.Status.IsSettled() {
			outcome = newOutcome(p, b)
			outcome.Duplicate = true
			return nil
		}

		switch event.Status {
		case domain.GatewaySucceeded:
			effect, err = s.applySuccess(ctx, tx, b, p, event)
		case domain.GatewayFailed:
			effect, err = s.applyFailure(ctx, tx, b, p, event)
		default:
			// Still processing at the provider.
		}
		if err != nil {
			return err
		}

		outcome = newOutcome(p, b)
		return nil
	})
	if err != nil {
		metrics.IncPaymentEvent(string(event.Status), "error")
		return nil, err
	}

	if outcome.Duplicate {
		metrics.IncPaymentEvent(string(event.Status), "duplicate")
		s.log.WithField("transaction_id", event.TransactionID).Info("duplicate payment event ignored")
		return outcome, nil
	}

	if effect != domain.InventoryNone {
		invalidateHotel(ctx, s.cache, s.log, hotelID)
	}

	result := "applied"
	if outcome.RefundRequired {
		result = "refund_flagged"
	}
	metrics.IncPaymentEvent(string(event.Status), result)

	s.log.WithFields(logrus.Fields{
		"transaction_id":  outcome.TransactionID,
		"booking_id":      outcome.BookingID,
		"payment_status":  outcome.PaymentStatus,
		"booking_status":  outcome.BookingStatus,
		"refund_required": outcome.RefundRequired,
	}).Info("payment event reconciled")

	return outcome, nil
}

func (s *PaymentService) resolveBooking(ctx context.Context, tx ports.Store, event *domain.PaymentEvent) (uuid.UUID, error) {
	p, err := tx.Payments().GetByTransactionID(ctx, event.TransactionID)
	switch {
	case err == nil:
		if p.BookingID != nil {
			return *p.BookingID, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return uuid.Nil, err
	}

	if event.BookingID == nil {
		return uuid.Nil, fmt.Errorf("payment %s: %w", event.TransactionID, domain.ErrNotFound)
	}
	return *event.BookingID, nil
}

// paymentForEvent re-reads the payment under the booking lock, recording one
// for gateway transactions this service never saw an intent for.
func (s *PaymentService) paymentForEvent(ctx context.Context, tx ports.Store, b *domain.Booking, event *domain.PaymentEvent) (*domain.Payment, error) {
	p, err := tx.Payments().GetByTransactionID(ctx, event.TransactionID)
	if err == nil {
		if p.BookingID == nil {
			p.BookingID = &b.ID
		}
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	amount := event.Amount
	if amount <= 0 {
		amount = b.Price.TotalAmount
	}
	currency := event.Currency
	if currency == "" {
		currency = b.Currency
	}

	now := s.clock()
	p = &domain.Payment{
		ID:            uuid.New(),
		Reference:     newPaymentReference(),
		TransactionID: event.TransactionID,
		UserID:        b.UserID,
		BookingID:     &b.ID,
		Amount:        amount,
		Currency:      currency,
		Status:        domain.PaymentPending,
		Provider:      s.gateway.Provider(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Money captured outside the booking's active slot is recorded, never applied.
	active, err := tx.Payments().GetActiveByBooking(ctx, b.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if active != nil {
		p.FlagRefund(fmt.Sprintf("booking already has active payment %s", active.TransactionID), now)
	}

	if err := tx.Payments().Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, domain.ErrActivePaymentExists):
			return nil, err
		case errors.Is(err, domain.ErrConflict):
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentEvent, event.TransactionID)
		default:
			return nil, err
		}
	}
	return p, nil
}

func (s *PaymentService) applySuccess(ctx context.Context, tx ports.Store, b *domain.Booking, p *domain.Payment, event *domain.PaymentEvent) (domain.InventoryEffect, error) {
	now := s.clock()
	if event.Amount > 0 {
		p.Amount = event.Amount
	}
	outsideSlot := p.RefundRequired
	p.MarkPaid(now)

	effect := domain.InventoryNone

	switch {
	case outsideSlot:
		p.FlagRefund(p.RefundReason, now)
		return effect, tx.Payments().Update(ctx, p)
	case b.Status != domain.BookingPending:
		p.FlagRefund(fmt.Sprintf("payment settled after booking became %s", b.Status), now)
		return effect, tx.Payments().Update(ctx, p)
	}

	total := b.Price.TotalAmount
	cmp := domain.CompareAmounts(p.Amount, total)
	if cmp < 0 {
		reason := fmt.Sprintf("payment of %.2f is below the booking total of %.2f", p.Amount, total)
		return effect, s.cancelForRefund(ctx, tx, b, p, reason)
	}

	b.PaymentStatus = domain.PaymentPaid
	b.PaidAmount = total

	t, err := s.lifecycle.transition(ctx, tx, b, domain.BookingConfirmed, "")
	switch {
	case err == nil:
		effect = t.Effect
	case errors.Is(err, domain.ErrInsufficientInventory):
		return effect, s.cancelForRefund(ctx, tx, b, p, reasonNoInventory)
	default:
		return effect, err
	}

	if cmp > 0 {
		p.FlagPartialRefund(p.Amount-total,
			fmt.Sprintf("payment of %.2f exceeds the booking total of %.2f", p.Amount, total), now)
	}

	return effect, tx.Payments().Update(ctx, p)
}

// cancelForRefund cancels a PENDING booking whose captured payment cannot
// confirm it and flags the whole payment for refund.
func (s *PaymentService) cancelForRefund(ctx context.Context, tx ports.Store, b *domain.Booking, p *domain.Payment, reason string) error {
	b.PaymentStatus = domain.PaymentPaid
	b.PaidAmount = p.Amount
	refund := p.Amount
	b.RefundAmount = &refund

	if _, err := s.lifecycle.transition(ctx, tx, b, domain.BookingCancelled, reason); err != nil {
		return err
	}

	p.FlagRefund(reason, s.clock())
	return tx.Payments().Update(ctx, p)
}

func (s *PaymentService) applyFailure(ctx context.Context, tx ports.Store, b *domain.Booking, p *domain.Payment, event *domain.PaymentEvent) (domain.InventoryEffect, error) {
	reason := event.FailureReason
	if reason == "" {
		reason = "payment failed"
	}
	outsideSlot := p.RefundRequired
	p.MarkFailed(reason, s.clock())
	if err := tx.Payments().Update(ctx, p); err != nil {
		return domain.InventoryNone, err
	}

	if outsideSlot || b.Status != domain.BookingPending {
		return domain.InventoryNone, nil
	}

	b.PaymentStatus = domain.PaymentFailed
	t, err := s.lifecycle.transition(ctx, tx, b, domain.BookingCancelled, reason)
	if err != nil {
		return domain.InventoryNone, err
	}
	return t.Effect, nil
}

// HandlePaymentTimeout cancels a booking whose payment window elapsed. It
// reports false when the booking already left PENDING. A pending intent is
// left open so a late success is still recorded and flagged for refund.
func (s *PaymentService) HandlePaymentTimeout(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	cancelled := false

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingPending {
			return nil
		}

		b.PaymentStatus = domain.PaymentFailed
		if _, err := s.lifecycle.transition(ctx, tx, b, domain.BookingCancelled, reasonPaymentTimeout); err != nil {
			return err
		}

		cancelled = true
		return nil
	})
	if err != nil {
		metrics.IncPaymentTimeout("error")
		return false, err
	}

	if cancelled {
		metrics.IncPaymentTimeout("cancelled")
	} else {
		metrics.IncPaymentTimeout("noop")
	}
	return cancelled, nil
}

// RefundPayment pays back a payment that reconciliation or a cancellation
// flagged. Only the owner of the booked hotel may trigger it.
func (s *PaymentService) RefundPayment(ctx context.Context, principal domain.Principal, paymentID uuid.UUID) (*domain.Payment, error) {
	if !principal.IsOwner() {
		return nil, domain.ErrForbidden
	}

	p, err := s.uow.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.BookingID == nil {
		return nil, fmt.Errorf("%w: payment %s has no booking", domain.ErrConflict, p.ID)
	}

	b, err := s.uow.Bookings().GetByID(ctx, *p.BookingID)
	if err != nil {
		return nil, err
	}
	hotel, err := s.uow.Hotels().GetByID(ctx, b.HotelID)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(hotel) {
		return nil, domain.ErrForbidden
	}

	return s.refunds.refund(ctx, p.ID)
}

func (s *PaymentService) ListUserPayments(ctx context.Context, principal domain.Principal) ([]domain.Payment, error) {
	return s.uow.Payments().ListByUser(ctx, principal.UserID)
}

func newOutcome(p *domain.Payment, b *domain.Booking) *domain.PaymentOutcome {
	return &domain.PaymentOutcome{
		PaymentID:      p.ID,
		BookingID:      b.ID,
		TransactionID:  p.TransactionID,
		PaymentStatus:  p.Status,
		BookingStatus:  b.Status,
		RefundRequired: p.RefundRequired,
	}
}
