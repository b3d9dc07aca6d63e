package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache keeps availability responses in Redis for a short TTL.
// Every booking or schedule write for a location invalidates that location's
// day keys, so a stale slot can only survive between a write and the
// invalidation that immediately follows it.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

// Get unmarshals the cached value into target. The bool result is false on a
// miss.
func (c *AvailabilityCache) Get(key string, target interface{}) (bool, error) {
	data, err := c.rdb.Get(context.Background(), key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return false, err
	}
	return true, nil
}

func (c *AvailabilityCache) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(context.Background(), key, data, c.ttl).Err()
}

// InvalidateDay drops every cached duration for the location/day pair.
func (c *AvailabilityCache) InvalidateDay(locationID int, day time.Time) error {
	ctx := context.Background()
	pattern := fmt.Sprintf("availability:%d:%s:*", locationID, day.Format("2006-01-02"))
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// InvalidateLocation drops every cached day for the location, used after
// schedule changes that affect the whole week.
func (c *AvailabilityCache) InvalidateLocation(locationID int) error {
	ctx := context.Background()
	pattern := fmt.Sprintf("availability:%d:*", locationID)
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
