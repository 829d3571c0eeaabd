package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
)

type CreateHotelRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Description    string  `json:"description"`
	City           string  `json:"city" validate:"required"`
	Country        string  `json:"country" validate:"required"`
	TotalRooms     int     `json:"total_rooms" validate:"required,min=1"`
	PricePerNight  float64 `json:"price_per_night" validate:"required,gt=0"`
	Currency       string  `json:"currency" validate:"omitempty,len=3"`
	TaxRate        float64 `json:"tax_rate" validate:"gte=0,lt=1"`
	ServiceFeeRate float64 `json:"service_fee_rate" validate:"gte=0,lt=1"`
}

type HotelService struct {
	uow      ports.UnitOfWork
	cache    ports.HotelCache
	currency string
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewHotelService(uow ports.UnitOfWork, cache ports.HotelCache, currency string, log logrus.FieldLogger) *HotelService {
	if currency == "" {
		currency = "USD"
	}
	return &HotelService{uow: uow, cache: cache, currency: currency, now: time.Now, log: log}
}

// CreateHotel registers a hotel with every room available.
func (s *HotelService) CreateHotel(ctx context.Context, principal domain.Principal, req CreateHotelRequest) (*domain.Hotel, error) {
	if !principal.IsOwner() {
		return nil, domain.ErrForbidden
	}

	input := domain.NewHotel{
		Name:           req.Name,
		Description:    req.Description,
		City:           req.City,
		Country:        req.Country,
		TotalRooms:     req.TotalRooms,
		PricePerNight:  req.PricePerNight,
		Currency:       req.Currency,
		TaxRate:        req.TaxRate,
		ServiceFeeRate: req.ServiceFeeRate,
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = s.currency
	}

	now := s.now().UTC()
	hotel := &domain.Hotel{
		ID:             uuid.New(),
		OwnerID:        principal.UserID,
		Name:           input.Name,
		Description:    input.Description,
		City:           input.City,
		Country:        input.Country,
		TotalRooms:     input.TotalRooms,
		AvailableRooms: input.TotalRooms,
		PricePerNight:  input.PricePerNight,
		Currency:       currency,
		TaxRate:        input.TaxRate,
		ServiceFeeRate: input.ServiceFeeRate,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.uow.Hotels().Create(ctx, hotel); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"hotel_id": hotel.ID,
		"owner_id": hotel.OwnerID,
		"rooms":    hotel.TotalRooms,
	}).Info("hotel created")

	return hotel, nil
}

// GetHotel reads through the cache. Cache failures fall back to the store.
func (s *HotelService) GetHotel(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, hotelID)
		if err != nil {
			s.log.WithError(err).WithField("hotel_id", hotelID).Warn("hotel cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	hotel, err := s.uow.Hotels().GetByID(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, hotel); err != nil {
			s.log.WithError(err).WithField("hotel_id", hotelID).Warn("hotel cache write failed")
		}
	}

	return hotel, nil
}

func (s *HotelService) ListOwnerHotels(ctx context.Context, principal domain.Principal) ([]domain.Hotel, error) {
	if !principal.IsOwner() {
		return nil, domain.ErrForbidden
	}
	return s.uow.Hotels().ListByOwner(ctx, principal.UserID)
}

func (s *HotelService) UpdateHotel(ctx context.Context, principal domain.Principal, hotelID uuid.UUID, patch domain.HotelPatch) (*domain.Hotel, error) {
	if !principal.IsOwner() {
		return nil, domain.ErrForbidden
	}

	var updated *domain.Hotel

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		hotel, err := tx.Hotels().GetForUpdate(ctx, hotelID)
		if err != nil {
			return err
		}
		if !principal.CanManage(hotel) {
			return domain.ErrForbidden
		}

		if err := patch.Apply(hotel); err != nil {
			return err
		}
		hotel.UpdatedAt = s.now().UTC()

		if err := tx.Hotels().UpdateProfile(ctx, hotel); err != nil {
			return err
		}

		updated = hotel
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateHotel(ctx, s.cache, s.log, hotelID)
	return updated, nil
}
