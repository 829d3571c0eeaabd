package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const TimeoutQueueKey = "booking:payment_timeouts"

// TimeoutScheduler keeps payment deadlines in a sorted set scored by the unix
// second they fall due, so pending deadlines survive a process restart.
type TimeoutScheduler struct {
	client goredis.Cmdable
	key    string
}

func NewTimeoutScheduler(client goredis.Cmdable) *TimeoutScheduler {
	return &TimeoutScheduler{client: client, key: TimeoutQueueKey}
}

// Schedule sets or moves the deadline of a booking.
func (s *TimeoutScheduler) Schedule(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	return s.client.ZAdd(ctx, s.key, goredis.Z{
		Score:  float64(at.Unix()),
		Member: bookingID.String(),
	}).Err()
}

func (s *TimeoutScheduler) Due(ctx context.Context, now time.Time, limit int64) ([]uuid.UUID, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			// Unparseable members would otherwise come back on every poll.
			s.client.ZRem(ctx, s.key, m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Claim removes the entry. Only the caller whose ZREM removed it owns the timeout.
func (s *TimeoutScheduler) Claim(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	removed, err := s.client.ZRem(ctx, s.key, bookingID.String()).Result()
	if err != nil {
		return false, err
	}
	return removed == 1, nil
}
