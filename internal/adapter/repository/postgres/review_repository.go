package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

const reviewColumns = `id, user_id, hotel_id, booking_id, rating, comment, owner_reply, owner_reply_date, created_at, updated_at`

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
	INSERT INTO reviews (` + reviewColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		rv.ID, rv.UserID, rv.HotelID, rv.BookingID, rv.Rating, rv.Comment,
		nullString(rv.OwnerReply), rv.OwnerReplyDate, rv.CreatedAt, rv.UpdatedAt,
	)
	return mapError(err, "insert review")
}

func (r *ReviewRepository) GetByID(ctx context.Context, reviewID uuid.UUID) (*domain.Review, error) {
	return r.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, reviewID)
}

func (r *ReviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	return r.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE booking_id = $1`, bookingID)
}

func (r *ReviewRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("review %s", id))
	}
	return rv, nil
}

func (r *ReviewRepository) ListByHotel(ctx context.Context, hotelID uuid.UUID) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE hotel_id = $1 ORDER BY created_at DESC`, hotelID)
	if err != nil {
		return nil, mapError(err, "list reviews")
	}

	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}

	return reviews, rows.Err()
}

func (r *ReviewRepository) RatingsByHotel(ctx context.Context, hotelID uuid.UUID) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rating FROM reviews WHERE hotel_id = $1`, hotelID)
	if err != nil {
		return nil, mapError(err, "list ratings")
	}

	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}

	return ratings, rows.Err()
}

func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	query := `
	UPDATE reviews
	SET rating = $1,
		comment = $2,
		owner_reply = $3,
		owner_reply_date = $4,
		updated_at = $5
	WHERE id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		rv.Rating, rv.Comment, nullString(rv.OwnerReply), rv.OwnerReplyDate, rv.UpdatedAt, rv.ID)
	if err != nil {
		return mapError(err, "update review")
	}
	return expectOneRow(result, fmt.Sprintf("review %s", rv.ID))
}

func (r *ReviewRepository) Delete(ctx context.Context, reviewID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return mapError(err, "delete review")
	}
	return expectOneRow(result, fmt.Sprintf("review %s", reviewID))
}

func scanReview(row rowScanner) (*domain.Review, error) {
	var (
		rv         domain.Review
		ownerReply sql.NullString
		replyDate  sql.NullTime
	)

	err := row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.HotelID,
		&rv.BookingID,
		&rv.Rating,
		&rv.Comment,
		&ownerReply,
		&replyDate,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rv.OwnerReply = ownerReply.String
	rv.OwnerReplyDate = timePtr(replyDate)
	return &rv, nil
}
