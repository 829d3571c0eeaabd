package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/srgjo27/hotel_booking/internal/platform/metrics"
)

type CreateBookingRequest struct {
	HotelID      string `json:"hotel_id" validate:"required,uuid"`
	CheckInDate  string `json:"check_in_date" validate:"required"`
	CheckOutDate string `json:"check_out_date" validate:"required"`
	Guests       int    `json:"guests" validate:"required,min=1"`
	RoomTypeID   string `json:"room_type_id,omitempty" validate:"omitempty,uuid"`
}

type PaymentRequirement struct {
	BookingID       uuid.UUID            `json:"booking_id"`
	RequiresPayment bool                 `json:"requires_payment"`
	TotalAmount     float64              `json:"total_amount"`
	Status          domain.BookingStatus `json:"status"`
}

type BookingConfig struct {
	PaymentTimeout time.Duration
	Currency       string
}

type BookingService struct {
	uow       ports.UnitOfWork
	scheduler ports.TimeoutScheduler
	cache     ports.HotelCache
	lifecycle *lifecycle
	refunds   *refunder
	cfg       BookingConfig
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewBookingService(
	uow ports.UnitOfWork,
	ledger *InventoryLedger,
	codes ports.CodeGenerator,
	gateway ports.PaymentGateway,
	scheduler ports.TimeoutScheduler,
	cache ports.HotelCache,
	cfg BookingConfig,
	log logrus.FieldLogger,
) *BookingService {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Minute
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}

	s := &BookingService{
		uow:       uow,
		scheduler: scheduler,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
		log:       log,
	}
	s.lifecycle = &lifecycle{ledger: ledger, codes: codes, now: s.clock, log: log}
	s.refunds = &refunder{uow: uow, gateway: gateway, now: s.clock, log: log}

	return s
}

// SetClock replaces the time source.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *BookingService) clock() time.Time {
	return s.now().UTC()
}

// CreateBooking stores a PENDING booking. Inventory is not touched until the
// booking is confirmed.
func (s *BookingService) CreateBooking(ctx context.Context, principal domain.Principal, req CreateBookingRequest) (*domain.Booking, error) {
	hotelID, err := uuid.Parse(req.HotelID)
	if err != nil {
		return nil, domain.NewValidationError("invalid hotel id")
	}

	checkIn, err := domain.ParseDate(req.CheckInDate)
	if err != nil {
		return nil, err
	}
	checkOut, err := domain.ParseDate(req.CheckOutDate)
	if err != nil {
		return nil, err
	}

	if req.Guests < 1 {
		return nil, domain.NewValidationError("guests must be at least 1")
	}

	var roomTypeID *uuid.UUID
	if req.RoomTypeID != "" {
		id, err := uuid.Parse(req.RoomTypeID)
		if err != nil {
			return nil, domain.NewValidationError("invalid room type id")
		}
		roomTypeID = &id
	}

	hotel, err := s.uow.Hotels().GetByID(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("hotel %s: %w", hotelID, err)
	}
	if !hotel.IsActive {
		return nil, fmt.Errorf("hotel %s: %w", hotelID, domain.ErrNotFound)
	}
	if !hotel.HasAvailability() {
		return nil, fmt.Errorf("hotel %s: %w", hotelID, domain.ErrInsufficientInventory)
	}

	nights, err := domain.Nights(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	quote := domain.Quote(hotel, nights)
	now := s.clock()

	currency := hotel.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	booking := &domain.Booking{
		ID:            uuid.New(),
		Reference:     newBookingReference(),
		UserID:        principal.UserID,
		HotelID:       hotel.ID,
		RoomTypeID:    roomTypeID,
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		Nights:        nights,
		Guests:        req.Guests,
		Price:         quote,
		TotalPrice:    quote.Subtotal,
		Currency:      currency,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentPending,
		ExpiresAt:     now.Add(s.cfg.PaymentTimeout),
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}

	if err := s.uow.Bookings().Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.IncBookingCreated()

	if err := s.scheduler.Schedule(ctx, booking.ID, booking.ExpiresAt); err != nil {
		// The expired-booking sweeper still picks this booking up.
		s.log.WithError(err).WithField("booking_id", booking.ID).Warn("failed to schedule payment timeout")
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"hotel_id":   hotel.ID,
		"nights":     nights,
		"total":      quote.TotalAmount,
	}).Info("booking created")

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.uow.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.UserID == principal.UserID || principal.IsAdmin() {
		return b, nil
	}

	hotel, err := s.uow.Hotels().GetByID(ctx, b.HotelID)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(hotel) {
		return nil, domain.ErrForbidden
	}

	return b, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, principal domain.Principal) ([]domain.Booking, error) {
	return s.uow.Bookings().ListByUser(ctx, principal.UserID)
}

func (s *BookingService) ListOwnerBookings(ctx context.Context, principal domain.Principal) ([]domain.Booking, error) {
	if !principal.IsOwner() {
		return nil, domain.ErrForbidden
	}
	return s.uow.Bookings().ListByHotelOwner(ctx, principal.UserID)
}

func (s *BookingService) PaymentRequired(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*PaymentRequirement, error) {
	b, err := s.uow.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != principal.UserID {
		return nil, domain.ErrForbidden
	}

	return &PaymentRequirement{
		BookingID:       b.ID,
		RequiresPayment: b.RequiresPayment(),
		TotalAmount:     b.Price.TotalAmount,
		Status:          b.Status,
	}, nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, principal domain.Principal, bookingID uuid.UUID, patch domain.BookingPatch) (*domain.Booking, error) {
	var updated *domain.Booking

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		b, _, err := s.loadForGuestOrOwner(ctx, tx, principal, bookingID)
		if err != nil {
			return err
		}

		if err := patch.Apply(b); err != nil {
			return err
		}
		b.UpdatedAt = s.clock()

		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ConfirmBooking is the owner's manual confirmation. It reserves a room and
// records a manual PAID payment so a CONFIRMED booking always has one.
// Confirming an already CONFIRMED booking is a no-op.
func (s *BookingService) ConfirmBooking(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	var (
		confirmed *domain.Booking
		effect    domain.InventoryEffect
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		b, _, err := s.loadForOwner(ctx, tx, principal, bookingID)
		if err != nil {
			return err
		}

		if b.Status == domain.BookingPending {
			active, err := tx.Payments().GetActiveByBooking(ctx, b.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if active != nil {
				return fmt.Errorf("%w: booking %s has a payment in progress", domain.ErrConflict, b.ID)
			}

			now := s.clock()
			payment := &domain.Payment{
				ID:            uuid.New(),
				Reference:     newPaymentReference(),
				TransactionID: "manual_" + b.ID.String(),
				UserID:        b.UserID,
				BookingID:     &b.ID,
				Amount:        b.Price.TotalAmount,
				Currency:      b.Currency,
				Status:        domain.PaymentPaid,
				Provider:      domain.ProviderManual,
				ProcessedAt:   &now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Payments().Create(ctx, payment); err != nil {
				return err
			}
			b.PaymentStatus = domain.PaymentPaid
			b.PaidAmount = payment.Amount
		}

		t, err := s.lifecycle.transition(ctx, tx, b, domain.BookingConfirmed, "")
		if err != nil {
			return err
		}

		effect = t.Effect
		confirmed = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if effect != domain.InventoryNone {
		invalidateHotel(ctx, s.cache, s.log, confirmed.HotelID)
	}
	return confirmed, nil
}

// RejectBooking cancels a PENDING booking on the owner's behalf.
func (s *BookingService) RejectBooking(ctx context.Context, principal domain.Principal, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	if reason == "" {
		reason = "rejected by owner"
	}

	return s.ownerTransition(ctx, principal, bookingID, domain.BookingCancelled, reason, func(b *domain.Booking) error {
		return requireStatus(b, domain.BookingPending, domain.BookingCancelled)
	})
}

// CancelBooking is available to the guest and the hotel owner before check-in.
// Cancelling a CONFIRMED booking releases its room and refunds the payment.
func (s *BookingService) CancelBooking(ctx context.Context, principal domain.Principal, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	var (
		cancelled *domain.Booking
		effect    domain.InventoryEffect
		refundID  *uuid.UUID
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		b, isGuest, err := s.loadForGuestOrOwner(ctx, tx, principal, bookingID)
		if err != nil {
			return err
		}

		if reason == "" {
			reason = "cancelled by owner"
			if isGuest {
				reason = "cancelled by guest"
			}
		}

		wasConfirmed := b.Status == domain.BookingConfirmed
		if wasConfirmed && b.PaidAmount > 0 {
			amount := b.PaidAmount
			b.RefundAmount = &amount
		}
		t, err := s.lifecycle.transition(ctx, tx, b, domain.BookingCancelled, reason)
		if err != nil {
			return err
		}

		if wasConfirmed {
			payment, err := tx.Payments().GetActiveByBooking(ctx, b.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if payment != nil && payment.Status != domain.PaymentPending {
				payment.FlagRefund(reason, s.clock())
				if err := tx.Payments().Update(ctx, payment); err != nil {
					return err
				}
				refundID = &payment.ID
			}
		}

		effect = t.Effect
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if effect != domain.InventoryNone {
		invalidateHotel(ctx, s.cache, s.log, cancelled.HotelID)
	}

	if refundID != nil {
		if _, err := s.refunds.refund(ctx, *refundID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"booking_id": cancelled.ID,
				"payment_id": *refundID,
			}).Warn("automatic refund failed, payment left flagged for manual refund")
		} else if fresh, err := s.uow.Bookings().GetByID(ctx, cancelled.ID); err == nil {
			cancelled = fresh
		}
	}

	return cancelled, nil
}

func (s *BookingService) CheckIn(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.ownerTransition(ctx, principal, bookingID, domain.BookingCheckedIn, "", nil)
}

func (s *BookingService) CheckOut(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.ownerTransition(ctx, principal, bookingID, domain.BookingCheckedOut, "", nil)
}

// MarkNoShow is an administrative owner action.
func (s *BookingService) MarkNoShow(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.ownerTransition(ctx, principal, bookingID, domain.BookingNoShow, "guest did not arrive", nil)
}

func (s *BookingService) CheckInByCode(ctx context.Context, principal domain.Principal, code string) (*domain.Booking, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError("check-in code is required")
	}

	b, err := s.uow.Bookings().GetByCheckInCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.ownerTransition(ctx, principal, b.ID, domain.BookingCheckedIn, "", nil)
}

func (s *BookingService) SelfCheckIn(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.guestTransition(ctx, principal, bookingID, domain.BookingCheckedIn)
}

func (s *BookingService) SelfCheckOut(ctx context.Context, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.guestTransition(ctx, principal, bookingID, domain.BookingCheckedOut)
}

func (s *BookingService) ownerTransition(
	ctx context.Context,
	principal domain.Principal,
	bookingID uuid.UUID,
	to domain.BookingStatus,
	reason string,
	guard func(b *domain.Booking) error,
) (*domain.Booking, error) {
	var (
		result *domain.Booking
		effect domain.InventoryEffect
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		b, _, err := s.loadForOwner(ctx, tx, principal, bookingID)
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(b); err != nil {
				return err
			}
		}

		t, err := s.lifecycle.transition(ctx, tx, b, to, reason)
		if err != nil {
			return err
		}

		effect = t.Effect
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if effect != domain.InventoryNone {
		invalidateHotel(ctx, s.cache, s.log, result.HotelID)
	}
	return result, nil
}

func (s *BookingService) guestTransition(ctx context.Context, principal domain.Principal, bookingID uuid.UUID, to domain.BookingStatus) (*domain.Booking, error) {
	var result *domain.Booking

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != principal.UserID {
			return domain.ErrForbidden
		}

		if _, err := s.lifecycle.transition(ctx, tx, b, to, ""); err != nil {
			return err
		}

		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *BookingService) loadForOwner(ctx context.Context, tx ports.Store, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, *domain.Hotel, error) {
	if !principal.IsOwner() {
		return nil, nil, domain.ErrForbidden
	}

	b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	hotel, err := tx.Hotels().GetByID(ctx, b.HotelID)
	if err != nil {
		return nil, nil, err
	}
	if !principal.CanManage(hotel) {
		return nil, nil, domain.ErrForbidden
	}

	return b, hotel, nil
}

func (s *BookingService) loadForGuestOrOwner(ctx context.Context, tx ports.Store, principal domain.Principal, bookingID uuid.UUID) (*domain.Booking, bool, error) {
	b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	if b.UserID == principal.UserID {
		return b, true, nil
	}

	hotel, err := tx.Hotels().GetByID(ctx, b.HotelID)
	if err != nil {
		return nil, false, err
	}
	if !principal.CanManage(hotel) {
		return nil, false, domain.ErrForbidden
	}

	return b, false, nil
}

func newBookingReference() string {
	return "BK" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func newPaymentReference() string {
	return "PAY" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
