package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisLimiter(t *testing.T, rate Rate) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, "bdvoucher", rate), server
}

func TestRedisLimiterCeiling(t *testing.T) {
	limiter, _ := testRedisLimiter(t, Rate{Attempts: 3, Window: time.Hour})

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("CODE")
		assert.True(t, allowed, "attempt %d", i)
		require.NoError(t, limiter.RecordAttempt("CODE"))
	}

	allowed, info := limiter.Allow("CODE")
	assert.False(t, allowed)
	assert.Equal(t, 3, info.Limit)
	assert.Equal(t, 0, info.Remaining)
}

func TestRedisLimiterPerCodeIsolation(t *testing.T) {
	limiter, _ := testRedisLimiter(t, Rate{Attempts: 1, Window: time.Hour})

	require.NoError(t, limiter.RecordAttempt("FIRST"))
	allowed, _ := limiter.Allow("FIRST")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow("SECOND")
	assert.True(t, allowed)
}

func TestRedisLimiterReset(t *testing.T) {
	limiter, _ := testRedisLimiter(t, Rate{Attempts: 1, Window: time.Hour})

	require.NoError(t, limiter.RecordAttempt("CODE"))
	allowed, _ := limiter.Allow("CODE")
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset("CODE"))
	allowed, _ = limiter.Allow("CODE")
	assert.True(t, allowed)
}

func TestRedisLimiterFailsOpenOnFault(t *testing.T) {
	limiter, server := testRedisLimiter(t, Rate{Attempts: 1, Window: time.Hour})

	require.NoError(t, limiter.RecordAttempt("CODE"))
	server.Close()

	// Limiter is defense in depth: a redis outage must not block redemption.
	allowed, _ := limiter.Allow("CODE")
	assert.True(t, allowed)
	assert.Error(t, limiter.RecordAttempt("CODE"))
}
