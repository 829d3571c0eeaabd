package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

const hotelColumns = `id, owner_id, name, description, city, country, total_rooms, available_rooms,
	price_per_night, currency, tax_rate, service_fee_rate, rating, total_reviews, is_active, created_at, updated_at`

type HotelRepository struct {
	db DBTX
}

func NewHotelRepository(db DBTX) *HotelRepository {
	return &HotelRepository{db: db}
}

func (r *HotelRepository) Create(ctx context.Context, h *domain.Hotel) error {
	query := `
	INSERT INTO hotels (` + hotelColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.OwnerID, h.Name, h.Description, h.City, h.Country, h.TotalRooms, h.AvailableRooms,
		h.PricePerNight, h.Currency, h.TaxRate, h.ServiceFeeRate, h.Rating, h.TotalReviews, h.IsActive,
		h.CreatedAt, h.UpdatedAt,
	)
	return mapError(err, "insert hotel")
}

func (r *HotelRepository) GetByID(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error) {
	return r.get(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = $1`, hotelID)
}

func (r *HotelRepository) GetForUpdate(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error) {
	return r.get(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = $1 FOR UPDATE`, hotelID)
}

func (r *HotelRepository) get(ctx context.Context, query string, hotelID uuid.UUID) (*domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, query, hotelID))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("hotel %s", hotelID))
	}
	return h, nil
}

func (r *HotelRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, mapError(err, "list hotels")
	}

	defer rows.Close()

	var hotels []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		hotels = append(hotels, *h)
	}

	return hotels, rows.Err()
}

func (r *HotelRepository) UpdateProfile(ctx context.Context, h *domain.Hotel) error {
	query := `
	UPDATE hotels
	SET name = $1,
		description = $2,
		price_per_night = $3,
		tax_rate = $4,
		service_fee_rate = $5,
		is_active = $6,
		updated_at = $7
	WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		h.Name, h.Description, h.PricePerNight, h.TaxRate, h.ServiceFeeRate, h.IsActive, h.UpdatedAt, h.ID)
	if err != nil {
		return mapError(err, "update hotel")
	}
	return expectOneRow(result, fmt.Sprintf("hotel %s", h.ID))
}

// DecrementAvailable is a conditional update: the row lock taken by UPDATE
// makes the check and the decrement one step.
func (r *HotelRepository) DecrementAvailable(ctx context.Context, hotelID uuid.UUID) error {
	query := `
	UPDATE hotels
	SET available_rooms = available_rooms - 1,
		updated_at = NOW()
	WHERE id = $1 AND available_rooms > 0
	`

	result, err := r.db.ExecContext(ctx, query, hotelID)
	if err != nil {
		return mapError(err, "decrement available rooms")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, hotelID); err != nil {
			return err
		}
		return domain.ErrInsufficientInventory
	}

	return nil
}

func (r *HotelRepository) IncrementAvailable(ctx context.Context, hotelID uuid.UUID) error {
	query := `
	UPDATE hotels
	SET available_rooms = LEAST(available_rooms + 1, total_rooms),
		updated_at = NOW()
	WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, hotelID)
	if err != nil {
		return mapError(err, "increment available rooms")
	}
	return expectOneRow(result, fmt.Sprintf("hotel %s", hotelID))
}

func (r *HotelRepository) UpdateRating(ctx context.Context, hotelID uuid.UUID, rating float64, totalReviews int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE hotels SET rating = $1, total_reviews = $2, updated_at = NOW() WHERE id = $3`,
		rating, totalReviews, hotelID)
	if err != nil {
		return mapError(err, "update hotel rating")
	}
	return expectOneRow(result, fmt.Sprintf("hotel %s", hotelID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(row rowScanner) (*domain.Hotel, error) {
	var h domain.Hotel
	err := row.Scan(
		&h.ID,
		&h.OwnerID,
		&h.Name,
		&h.Description,
		&h.City,
		&h.Country,
		&h.TotalRooms,
		&h.AvailableRooms,
		&h.PricePerNight,
		&h.Currency,
		&h.TaxRate,
		&h.ServiceFeeRate,
		&h.Rating,
		&h.TotalReviews,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
