package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
)

const defaultHotelTTL = 5 * time.Minute

func HotelKey(hotelID uuid.UUID) string {
	return fmt.Sprintf("hotel:%s", hotelID.String())
}

// HotelCache is a read-through copy of hotel rows. Any change to the
// inventory counter or rating invalidates the entry.
type HotelCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewHotelCache(client goredis.Cmdable, ttl time.Duration) *HotelCache {
	if ttl <= 0 {
		ttl = defaultHotelTTL
	}
	return &HotelCache{client: client, ttl: ttl}
}

func (c *HotelCache) Get(ctx context.Context, hotelID uuid.UUID) (*domain.Hotel, error) {
	raw, err := c.client.Get(ctx, HotelKey(hotelID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var hotel domain.Hotel
	if err := json.Unmarshal(raw, &hotel); err != nil {
		return nil, fmt.Errorf("decode cached hotel %s: %w", hotelID, err)
	}
	return &hotel, nil
}

func (c *HotelCache) Set(ctx context.Context, hotel *domain.Hotel) error {
	raw, err := json.Marshal(hotel)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, HotelKey(hotel.ID), raw, c.ttl).Err()
}

func (c *HotelCache) Invalidate(ctx context.Context, hotelID uuid.UUID) error {
	return c.client.Del(ctx, HotelKey(hotelID)).Err()
}
