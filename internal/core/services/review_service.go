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
)

type CreateReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type HotelReviews struct {
	HotelID uuid.UUID            `json:"hotel_id"`
	Summary domain.RatingSummary `json:"summary"`
	Reviews []domain.Review      `json:"reviews"`
}

// ReviewService keeps a hotel's rating aggregate in step with its review set.
// Every review write recomputes the aggregate inside the same transaction.
type ReviewService struct {
	uow   ports.UnitOfWork
	cache ports.HotelCache
	now   func() time.Time
	log   logrus.FieldLogger
}

func NewReviewService(uow ports.UnitOfWork, cache ports.HotelCache, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{uow: uow, cache: cache, now: time.Now, log: log}
}

func (s *ReviewService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ReviewService) CreateReview(ctx context.Context, principal domain.Principal, req CreateReviewRequest) (*domain.Review, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, domain.NewValidationError("invalid booking id")
	}
	if err := domain.ValidateRating(req.Rating); err != nil {
		return nil, err
	}

	var created *domain.Review

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != principal.UserID {
			return domain.ErrForbidden
		}
		if b.Status != domain.BookingCheckedOut {
			return fmt.Errorf("%w: booking %s is %s, reviews need a completed stay", domain.ErrConflict, b.ID, b.Status)
		}

		existing, err := tx.Reviews().GetByBookingID(ctx, b.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: booking %s already has a review", domain.ErrConflict, b.ID)
		}

		now := s.now().UTC()
		review := &domain.Review{
			ID:        uuid.New(),
			UserID:    principal.UserID,
			HotelID:   b.HotelID,
			BookingID: b.ID,
			Rating:    req.Rating,
			Comment:   strings.TrimSpace(req.Comment),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Reviews().Create(ctx, review); err != nil {
			return err
		}
		if err := s.recompute(ctx, tx, b.HotelID); err != nil {
			return err
		}

		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateHotel(ctx, s.cache, s.log, created.HotelID)
	return created, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, principal domain.Principal, reviewID uuid.UUID, patch domain.ReviewPatch) (*domain.Review, error) {
	var updated *domain.Review

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		r, err := tx.Reviews().GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if r.UserID != principal.UserID {
			return domain.ErrForbidden
		}

		if err := patch.Apply(r, s.now().UTC()); err != nil {
			return err
		}
		if err := tx.Reviews().Update(ctx, r); err != nil {
			return err
		}
		if patch.Rating != nil {
			if err := s.recompute(ctx, tx, r.HotelID); err != nil {
				return err
			}
		}

		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if patch.Rating != nil {
		invalidateHotel(ctx, s.cache, s.log, updated.HotelID)
	}
	return updated, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, principal domain.Principal, reviewID uuid.UUID) error {
	var hotelID uuid.UUID

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		r, err := tx.Reviews().GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if r.UserID != principal.UserID && !principal.IsAdmin() {
			return domain.ErrForbidden
		}

		if err := tx.Reviews().Delete(ctx, r.ID); err != nil {
			return err
		}

		hotelID = r.HotelID
		return s.recompute(ctx, tx, r.HotelID)
	})
	if err != nil {
		return err
	}

	invalidateHotel(ctx, s.cache, s.log, hotelID)
	return nil
}

// ReplyToReview stores the hotel owner's public answer. The rating is untouched.
func (s *ReviewService) ReplyToReview(ctx context.Context, principal domain.Principal, reviewID uuid.UUID, reply string) (*domain.Review, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, domain.NewValidationError("reply is required")
	}
	if !principal.IsOwner() {
		return nil, domain.ErrForbidden
	}

	var replied *domain.Review

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		r, err := tx.Reviews().GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		hotel, err := tx.Hotels().GetByID(ctx, r.HotelID)
		if err != nil {
			return err
		}
		if !principal.CanManage(hotel) {
			return domain.ErrForbidden
		}

		now := s.now().UTC()
		r.OwnerReply = reply
		r.OwnerReplyDate = &now
		r.UpdatedAt = now
		if err := tx.Reviews().Update(ctx, r); err != nil {
			return err
		}

		replied = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return replied, nil
}

func (s *ReviewService) ListHotelReviews(ctx context.Context, hotelID uuid.UUID) (*HotelReviews, error) {
	if _, err := s.uow.Hotels().GetByID(ctx, hotelID); err != nil {
		return nil, err
	}

	reviews, err := s.uow.Reviews().ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	ratings := make([]int, 0, len(reviews))
	for _, r := range reviews {
		ratings = append(ratings, r.Rating)
	}

	return &HotelReviews{
		HotelID: hotelID,
		Summary: domain.Summarize(ratings),
		Reviews: reviews,
	}, nil
}

// recompute rebuilds the hotel aggregate from the reviews visible in tx.
func (s *ReviewService) recompute(ctx context.Context, tx ports.Store, hotelID uuid.UUID) error {
	if _, err := tx.Hotels().GetForUpdate(ctx, hotelID); err != nil {
		return err
	}

	ratings, err := tx.Reviews().RatingsByHotel(ctx, hotelID)
	if err != nil {
		return err
	}

	summary := domain.Summarize(ratings)
	if err := tx.Hotels().UpdateRating(ctx, hotelID, summary.Average, summary.Count); err != nil {
		return fmt.Errorf("update rating for hotel %s: %w", hotelID, err)
	}

	s.log.WithFields(logrus.Fields{
		"hotel_id": hotelID,
		"rating":   summary.Average,
		"reviews":  summary.Count,
	}).Debug("hotel rating recomputed")

	return nil
}
