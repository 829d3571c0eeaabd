package domain

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	HotelID        uuid.UUID  `json:"hotel_id"`
	BookingID      uuid.UUID  `json:"booking_id"`
	Rating         int        `json:"rating"`
	Comment        string     `json:"comment"`
	OwnerReply     string     `json:"owner_reply,omitempty"`
	OwnerReplyDate *time.Time `json:"owner_reply_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return NewValidationError("rating must be between 1 and 5")
	}
	return nil
}

type ReviewPatch struct {
	Rating  *int
	Comment *string
}

func (p ReviewPatch) Apply(r *Review, at time.Time) error {
	if p.Rating != nil {
		if err := ValidateRating(*p.Rating); err != nil {
			return err
		}
		r.Rating = *p.Rating
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
	r.UpdatedAt = at
	return nil
}

// RatingSummary is the aggregate of every review attached to a hotel.
type RatingSummary struct {
	Average      float64     `json:"average_rating"`
	Count        int         `json:"total_reviews"`
	Distribution map[int]int `json:"rating_distribution"`
}

func Summarize(ratings []int) RatingSummary {
	summary := RatingSummary{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(ratings) == 0 {
		return summary
	}

	total := 0
	for _, r := range ratings {
		total += r
		summary.Distribution[r]++
	}

	summary.Count = len(ratings)
	summary.Average = RoundRating(float64(total) / float64(len(ratings)))
	return summary
}
