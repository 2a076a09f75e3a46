package redis

import (
	"context"
	"fmt"
	"time"

	"idol-platform/internal/client"
	"idol-platform/internal/util"

	"go.uber.org/zap"
)

// AttemptCache counts authentication failures per account and flips a lock
// key when the threshold is crossed. Both keys expire with the window, so
// lockouts clear themselves.
type AttemptCache struct {
	redis       *client.RedisClient
	maxAttempts int
	lockout     time.Duration
}

func NewAttemptCache(redisClient *client.RedisClient, maxAttempts int, lockout time.Duration) *AttemptCache {
	return &AttemptCache{
		redis:       redisClient,
		maxAttempts: maxAttempts,
		lockout:     lockout,
	}
}

func (c *AttemptCache) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	counterKey := fmt.Sprintf("auth:fail:%s", key)

	count, err := c.redis.Client.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record auth failure: %w", err)
	}
	if count == 1 {
		if err := c.redis.Client.Expire(ctx, counterKey, window).Err(); err != nil {
			return int(count), fmt.Errorf("failed to set failure window: %w", err)
		}
	}

	if int(count) >= c.maxAttempts {
		lockKey := fmt.Sprintf("auth:lock:%s", key)
		if err := c.redis.Client.Set(ctx, lockKey, 1, c.lockout).Err(); err != nil {
			return int(count), fmt.Errorf("failed to set lockout: %w", err)
		}
		util.Warn("Account locked after repeated auth failures",
			zap.String("key", key),
			zap.Int("failures", int(count)))
	}

	return int(count), nil
}

func (c *AttemptCache) Locked(ctx context.Context, key string) (bool, error) {
	lockKey := fmt.Sprintf("auth:lock:%s", key)

	exists, err := c.redis.Client.Exists(ctx, lockKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check lockout: %w", err)
	}
	return exists > 0, nil
}

func (c *AttemptCache) Reset(ctx context.Context, key string) error {
	counterKey := fmt.Sprintf("auth:fail:%s", key)

	if err := c.redis.Client.Del(ctx, counterKey).Err(); err != nil {
		return fmt.Errorf("failed to reset auth failures: %w", err)
	}
	return nil
}
