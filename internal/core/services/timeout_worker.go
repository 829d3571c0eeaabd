package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
)

type TimeoutWorkerConfig struct {
	PollInterval  time.Duration
	SweepInterval time.Duration
	BatchSize     int
	RetryDelay    time.Duration
}

// TimeoutWorker cancels bookings whose payment window has elapsed. Deadlines
// come from the durable scheduler; a slower sweep over expires_at catches any
// booking whose deadline was never scheduled.
type TimeoutWorker struct {
	payments  *PaymentService
	scheduler ports.TimeoutScheduler
	bookings  ports.BookingRepository
	cfg       TimeoutWorkerConfig
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewTimeoutWorker(payments *PaymentService, scheduler ports.TimeoutScheduler, bookings ports.BookingRepository, cfg TimeoutWorkerConfig, log logrus.FieldLogger) *TimeoutWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}

	return &TimeoutWorker{
		payments:  payments,
		scheduler: scheduler,
		bookings:  bookings,
		cfg:       cfg,
		now:       time.Now,
		log:       log.WithField("component", "timeout_worker"),
	}
}

func (w *TimeoutWorker) SetClock(now func() time.Time) {
	w.now = now
}

// Run blocks until ctx is cancelled.
func (w *TimeoutWorker) Run(ctx context.Context) {
	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(w.cfg.SweepInterval)
	defer sweep.Stop()

	w.log.WithFields(logrus.Fields{
		"poll_interval":  w.cfg.PollInterval,
		"sweep_interval": w.cfg.SweepInterval,
	}).Info("payment timeout worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("payment timeout worker stopped")
			return
		case <-poll.C:
			w.ProcessDue(ctx)
		case <-sweep.C:
			w.SweepExpired(ctx)
		}
	}
}

// ProcessDue handles every scheduled deadline that has passed. Each entry is
// claimed before it is handled so only one worker acts on it.
func (w *TimeoutWorker) ProcessDue(ctx context.Context) int {
	ids, err := w.scheduler.Due(ctx, w.now(), int64(w.cfg.BatchSize))
	if err != nil {
		w.log.WithError(err).Error("failed to fetch due payment timeouts")
		return 0
	}

	handled := 0
	for _, id := range ids {
		claimed, err := w.scheduler.Claim(ctx, id)
		if err != nil {
			w.log.WithError(err).WithField("booking_id", id).Warn("failed to claim payment timeout")
			continue
		}
		if !claimed {
			continue
		}

		if err := w.expire(ctx, id); err != nil {
			retryAt := w.now().Add(w.cfg.RetryDelay)
			if serr := w.scheduler.Schedule(ctx, id, retryAt); serr != nil {
				w.log.WithError(serr).WithField("booking_id", id).Error("failed to reschedule payment timeout")
			}
			continue
		}
		handled++
	}

	return handled
}

// SweepExpired is the fallback path over bookings still PENDING past expires_at.
func (w *TimeoutWorker) SweepExpired(ctx context.Context) int {
	ids, err := w.bookings.GetExpiredPending(ctx, w.now(), w.cfg.BatchSize)
	if err != nil {
		w.log.WithError(err).Error("failed to fetch expired bookings")
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	w.log.WithField("count", len(ids)).Info("found expired bookings, cancelling")

	handled := 0
	for _, id := range ids {
		if err := w.expire(ctx, id); err == nil {
			handled++
		}
	}
	return handled
}

func (w *TimeoutWorker) expire(ctx context.Context, id uuid.UUID) error {
	cancelled, err := w.payments.HandlePaymentTimeout(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.log.WithField("booking_id", id).Warn("payment timeout for unknown booking dropped")
			return nil
		}
		w.log.WithError(err).WithField("booking_id", id).Error("failed to cancel expired booking")
		return err
	}

	if cancelled {
		w.log.WithField("booking_id", id).Info("booking cancelled after payment timeout")
	}
	return nil
}
