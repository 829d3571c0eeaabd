package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

type hotelRepo struct{ *view }

func (r *hotelRepo) Create(_ context.Context, h *domain.Hotel) error {
	return r.write(func(d *state) error {
		if _, ok := d.hotels[h.ID]; ok {
			return fmt.Errorf("hotel %s: %w", h.ID, domain.ErrConflict)
		}
		d.hotels[h.ID] = *h
		return nil
	})
}

func (r *hotelRepo) GetByID(_ context.Context, hotelID uuid.UUID) (*domain.Hotel, error) {
	var h domain.Hotel
	err := r.read(func(d *state) error {
		found, ok := d.hotels[hotelID]
		if !ok {
			return fmt.Errorf("hotel %s: %w", hotelID, domain.ErrNotFound)
		}
		h = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hotelRepo) GetForUpdate(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error) {
	return r.GetByID(ctx, hotelID)
}

func (r *hotelRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Hotel, error) {
	var hotels []domain.Hotel
	_ = r.read(func(d *state) error {
		for _, h := range d.hotels {
			if h.OwnerID == ownerID {
				hotels = append(hotels, h)
			}
		}
		return nil
	})

	sort.Slice(hotels, func(i, j int) bool { return hotels[i].CreatedAt.After(hotels[j].CreatedAt) })
	return hotels, nil
}

func (r *hotelRepo) UpdateProfile(_ context.Context, h *domain.Hotel) error {
	return r.mutateHotel(h.ID, func(stored *domain.Hotel) error {
		stored.Name = h.Name
		stored.Description = h.Description
		stored.PricePerNight = h.PricePerNight
		stored.TaxRate = h.TaxRate
		stored.ServiceFeeRate = h.ServiceFeeRate
		stored.IsActive = h.IsActive
		stored.UpdatedAt = h.UpdatedAt
		return nil
	})
}

func (r *hotelRepo) DecrementAvailable(_ context.Context, hotelID uuid.UUID) error {
	return r.mutateHotel(hotelID, func(stored *domain.Hotel) error {
		if stored.AvailableRooms <= 0 {
			return domain.ErrInsufficientInventory
		}
		stored.AvailableRooms--
		stored.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *hotelRepo) IncrementAvailable(_ context.Context, hotelID uuid.UUID) error {
	return r.mutateHotel(hotelID, func(stored *domain.Hotel) error {
		if stored.AvailableRooms < stored.TotalRooms {
			stored.AvailableRooms++
		}
		stored.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *hotelRepo) UpdateRating(_ context.Context, hotelID uuid.UUID, rating float64, totalReviews int) error {
	return r.mutateHotel(hotelID, func(stored *domain.Hotel) error {
		stored.Rating = rating
		stored.TotalReviews = totalReviews
		stored.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *hotelRepo) mutateHotel(hotelID uuid.UUID, fn func(stored *domain.Hotel) error) error {
	return r.write(func(d *state) error {
		stored, ok := d.hotels[hotelID]
		if !ok {
			return fmt.Errorf("hotel %s: %w", hotelID, domain.ErrNotFound)
		}
		if err := fn(&stored); err != nil {
			return err
		}
		d.hotels[hotelID] = stored
		return nil
	})
}

type bookingRepo struct{ *view }

func (r *bookingRepo) Create(_ context.Context, b *domain.Booking) error {
	return r.write(func(d *state) error {
		if _, ok := d.bookings[b.ID]; ok {
			return fmt.Errorf("booking %s: %w", b.ID, domain.ErrConflict)
		}
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepo) GetByID(_ context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return r.find(func(b *domain.Booking) bool { return b.ID == bookingID }, bookingID.String())
}

func (r *bookingRepo) GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, bookingID)
}

func (r *bookingRepo) GetByCheckInCode(_ context.Context, code string) (*domain.Booking, error) {
	return r.find(func(b *domain.Booking) bool { return b.CheckInCode != nil && *b.CheckInCode == code }, code)
}

func (r *bookingRepo) find(match func(b *domain.Booking) bool, key string) (*domain.Booking, error) {
	var found *domain.Booking
	_ = r.read(func(d *state) error {
		for _, b := range d.bookings {
			if match(&b) {
				copied := b
				found = &copied
				return nil
			}
		}
		return nil
	})
	if found == nil {
		return nil, fmt.Errorf("booking %s: %w", key, domain.ErrNotFound)
	}
	return found, nil
}

func (r *bookingRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return r.list(func(_ *state, b *domain.Booking) bool { return b.UserID == userID }), nil
}

func (r *bookingRepo) ListByHotelOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Booking, error) {
	return r.list(func(d *state, b *domain.Booking) bool {
		h, ok := d.hotels[b.HotelID]
		return ok && h.OwnerID == ownerID
	}), nil
}

func (r *bookingRepo) list(match func(d *state, b *domain.Booking) bool) []domain.Booking {
	var bookings []domain.Booking
	_ = r.read(func(d *state) error {
		for _, b := range d.bookings {
			if match(d, &b) {
				bookings = append(bookings, b)
			}
		}
		return nil
	})

	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings
}

func (r *bookingRepo) Update(_ context.Context, b *domain.Booking) error {
	return r.write(func(d *state) error {
		stored, ok := d.bookings[b.ID]
		if !ok {
			return fmt.Errorf("booking %s: %w", b.ID, domain.ErrNotFound)
		}
		if stored.Version != b.Version {
			return fmt.Errorf("optimistic lock failed on booking %s: %w", b.ID, domain.ErrConflict)
		}
		if b.CheckInCode != nil {
			for id, other := range d.bookings {
				if id != b.ID && other.CheckInCode != nil && *other.CheckInCode == *b.CheckInCode {
					return fmt.Errorf("check-in code for booking %s: %w", b.ID, domain.ErrConflict)
				}
			}
		}

		b.Version++
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepo) GetExpiredPending(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var expired []domain.Booking
	_ = r.read(func(d *state) error {
		for _, b := range d.bookings {
			if b.Status == domain.BookingPending && b.ExpiresAt.Before(now) {
				expired = append(expired, b)
			}
		}
		return nil
	})

	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	ids := make([]uuid.UUID, 0, len(expired))
	for _, b := range expired {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

type paymentRepo struct{ *view }

func (r *paymentRepo) Create(_ context.Context, p *domain.Payment) error {
	return r.write(func(d *state) error {
		for _, other := range d.payments {
			if other.ID == p.ID || other.TransactionID == p.TransactionID {
				return fmt.Errorf("payment %s: %w", p.TransactionID, domain.ErrConflict)
			}
		}
		if err := checkSlot(d, p); err != nil {
			return err
		}
		d.payments[p.ID] = *p
		return nil
	})
}

// checkSlot keeps at most one payment per booking in the active slot.
func checkSlot(d *state, p *domain.Payment) error {
	if p.BookingID == nil || !p.HoldsSlot() {
		return nil
	}
	for _, other := range d.payments {
		if other.ID == p.ID || other.BookingID == nil || *other.BookingID != *p.BookingID {
			continue
		}
		if other.HoldsSlot() {
			return fmt.Errorf("payment %s: %w: %w", p.TransactionID, domain.ErrConflict, domain.ErrActivePaymentExists)
		}
	}
	return nil
}

func (r *paymentRepo) GetByID(_ context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.ID == paymentID }, paymentID.String())
}

func (r *paymentRepo) GetByTransactionID(_ context.Context, transactionID string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.TransactionID == transactionID }, transactionID)
}

func (r *paymentRepo) GetActiveByBooking(_ context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	var latest *domain.Payment
	_ = r.read(func(d *state) error {
		for _, p := range d.payments {
			if p.BookingID == nil || *p.BookingID != bookingID || !p.HoldsSlot() {
				continue
			}
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				copied := p
				latest = &copied
			}
		}
		return nil
	})
	if latest == nil {
		return nil, fmt.Errorf("active payment for booking %s: %w", bookingID, domain.ErrNotFound)
	}
	return latest, nil
}

func (r *paymentRepo) find(match func(p *domain.Payment) bool, key string) (*domain.Payment, error) {
	var found *domain.Payment
	_ = r.read(func(d *state) error {
		for _, p := range d.payments {
			if match(&p) {
				copied := p
				found = &copied
				return nil
			}
		}
		return nil
	})
	if found == nil {
		return nil, fmt.Errorf("payment %s: %w", key, domain.ErrNotFound)
	}
	return found, nil
}

func (r *paymentRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	_ = r.read(func(d *state) error {
		for _, p := range d.payments {
			if p.UserID == userID {
				payments = append(payments, p)
			}
		}
		return nil
	})

	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (r *paymentRepo) Update(_ context.Context, p *domain.Payment) error {
	return r.write(func(d *state) error {
		stored, ok := d.payments[p.ID]
		if !ok {
			return fmt.Errorf("payment %s: %w", p.ID, domain.ErrNotFound)
		}
		updated := *p
		updated.TransactionID = stored.TransactionID
		if err := checkSlot(d, &updated); err != nil {
			return err
		}
		d.payments[p.ID] = updated
		return nil
	})
}

type reviewRepo struct{ *view }

func (r *reviewRepo) Create(_ context.Context, rv *domain.Review) error {
	return r.write(func(d *state) error {
		for _, other := range d.reviews {
			if other.ID == rv.ID || other.BookingID == rv.BookingID {
				return fmt.Errorf("review for booking %s: %w", rv.BookingID, domain.ErrConflict)
			}
		}
		d.reviews[rv.ID] = *rv
		return nil
	})
}

func (r *reviewRepo) GetByID(_ context.Context, reviewID uuid.UUID) (*domain.Review, error) {
	return r.find(func(rv *domain.Review) bool { return rv.ID == reviewID }, reviewID)
}

func (r *reviewRepo) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	return r.find(func(rv *domain.Review) bool { return rv.BookingID == bookingID }, bookingID)
}

func (r *reviewRepo) find(match func(rv *domain.Review) bool, key uuid.UUID) (*domain.Review, error) {
	var found *domain.Review
	_ = r.read(func(d *state) error {
		for _, rv := range d.reviews {
			if match(&rv) {
				copied := rv
				found = &copied
				return nil
			}
		}
		return nil
	})
	if found == nil {
		return nil, fmt.Errorf("review %s: %w", key, domain.ErrNotFound)
	}
	return found, nil
}

func (r *reviewRepo) ListByHotel(_ context.Context, hotelID uuid.UUID) ([]domain.Review, error) {
	var reviews []domain.Review
	_ = r.read(func(d *state) error {
		for _, rv := range d.reviews {
			if rv.HotelID == hotelID {
				reviews = append(reviews, rv)
			}
		}
		return nil
	})

	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (r *reviewRepo) RatingsByHotel(ctx context.Context, hotelID uuid.UUID) ([]int, error) {
	reviews, err := r.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	ratings := make([]int, 0, len(reviews))
	for _, rv := range reviews {
		ratings = append(ratings, rv.Rating)
	}
	return ratings, nil
}

func (r *reviewRepo) Update(_ context.Context, rv *domain.Review) error {
	return r.write(func(d *state) error {
		if _, ok := d.reviews[rv.ID]; !ok {
			return fmt.Errorf("review %s: %w", rv.ID, domain.ErrNotFound)
		}
		d.reviews[rv.ID] = *rv
		return nil
	})
}

func (r *reviewRepo) Delete(_ context.Context, reviewID uuid.UUID) error {
	return r.write(func(d *state) error {
		if _, ok := d.reviews[reviewID]; !ok {
			return fmt.Errorf("review %s: %w", reviewID, domain.ErrNotFound)
		}
		delete(d.reviews, reviewID)
		return nil
	})
}
