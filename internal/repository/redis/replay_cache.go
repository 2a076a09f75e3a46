package redis

import (
	"context"
	"fmt"
	"time"

	"idol-platform/internal/client"
)

// ReplayCache rejects TOTP codes that were already accepted within their
// validity window. A SETNX per (user, time step) is enough: the key lives
// for the skew window, so a replayed code finds the marker and fails.
type ReplayCache struct {
	redis *client.RedisClient
}

func NewReplayCache(redisClient *client.RedisClient) *ReplayCache {
	return &ReplayCache{redis: redisClient}
}

func (c *ReplayCache) MarkUsed(ctx context.Context, userID string, step int64, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("totp:used:%s:%d", userID, step)

	ok, err := c.redis.Client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark totp code used: %w", err)
	}
	return ok, nil
}
