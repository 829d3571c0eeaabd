package redis_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	cache "github.com/srgjo27/hotel_booking/internal/adapter/cache/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutScheduler_Schedule(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	scheduler := cache.NewTimeoutScheduler(db)

	bookingID := uuid.New()
	at := time.Date(2025, 1, 1, 12, 10, 0, 0, time.UTC)

	mockRedis.ExpectZAdd(cache.TimeoutQueueKey, goredis.Z{
		Score:  float64(at.Unix()),
		Member: bookingID.String(),
	}).SetVal(1)

	assert.NoError(t, scheduler.Schedule(context.Background(), bookingID, at))
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestTimeoutScheduler_Due(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	scheduler := cache.NewTimeoutScheduler(db)

	now := time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()

	mockRedis.ExpectZRangeByScore(cache.TimeoutQueueKey, &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: 50,
	}).SetVal([]string{first.String(), "garbage", second.String()})
	mockRedis.ExpectZRem(cache.TimeoutQueueKey, "garbage").SetVal(1)

	ids, err := scheduler.Due(context.Background(), now, 50)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestTimeoutScheduler_ClaimOnlyOnce(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	scheduler := cache.NewTimeoutScheduler(db)

	bookingID := uuid.New()
	mockRedis.ExpectZRem(cache.TimeoutQueueKey, bookingID.String()).SetVal(1)
	mockRedis.ExpectZRem(cache.TimeoutQueueKey, bookingID.String()).SetVal(0)

	claimed, err := scheduler.Claim(context.Background(), bookingID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = scheduler.Claim(context.Background(), bookingID)
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.NoError(t, mockRedis.ExpectationsWereMet())
}
