package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisLimiter implements Limiter using Redis sorted sets with a sliding
// window, so attempt counts are shared across redemption front-ends.
type RedisLimiter struct {
	redis *redis.Client
	rate  Rate
	// prefix for redis keys to avoid collisions
	keyPrefix string
}

// NewRedisLimiter creates a new RedisLimiter
func NewRedisLimiter(redis *redis.Client, keyPrefix string, rate Rate) *RedisLimiter {
	return &RedisLimiter{
		redis:     redis,
		rate:      rate,
		keyPrefix: keyPrefix,
	}
}

// formatKey formats the rate limit key with prefix
func (l *RedisLimiter) formatKey(code string) string {
	return fmt.Sprintf("%s:ratelimit:%s", l.keyPrefix, code)
}

// Allow implements Limiter.Allow. It trims attempts that have slid out of
// the window, then compares the live count against the ceiling.
func (l *RedisLimiter) Allow(code string) (bool, Info) {
	ctx := context.Background()
	now := time.Now()
	windowKey := l.formatKey(code)

	pipe := l.redis.Pipeline()

	// Remove old entries outside the window
	windowStart := now.Add(-l.rate.Window).UnixNano()
	pipe.ZRemRangeByScore(ctx, windowKey, "0", strconv.FormatInt(windowStart, 10))

	// Get current count
	countCmd := pipe.ZCard(ctx, windowKey)

	if _, err := pipe.Exec(ctx); err != nil {
		// The limiter is defense in depth, not the security boundary:
		// on a redis fault, fail open rather than block redemptions.
		logrus.Errorf("ratelimit: redis allow check failed for key %s: %v", windowKey, err)
		return true, Info{
			Limit:     l.rate.Attempts,
			Remaining: 0,
			Reset:     now.Add(l.rate.Window),
		}
	}

	count := int(countCmd.Val())
	remaining := l.rate.Attempts - count
	if remaining < 0 {
		remaining = 0
	}

	return count < l.rate.Attempts, Info{
		Limit:     l.rate.Attempts,
		Remaining: remaining,
		Reset:     now.Add(l.rate.Window),
	}
}

// RecordAttempt implements Limiter.RecordAttempt
func (l *RedisLimiter) RecordAttempt(code string) error {
	ctx := context.Background()
	now := time.Now()
	windowKey := l.formatKey(code)

	pipe := l.redis.Pipeline()

	pipe.ZAdd(ctx, windowKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})

	// Set expiry to clean up old keys
	pipe.Expire(ctx, windowKey, l.rate.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		logrus.Errorf("ratelimit: redis record attempt failed for key %s: %v", windowKey, err)
		return err
	}

	return nil
}

// Reset implements Limiter.Reset
func (l *RedisLimiter) Reset(code string) error {
	ctx := context.Background()
	return l.redis.Del(ctx, l.formatKey(code)).Err()
}
