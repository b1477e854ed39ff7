package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterCeiling(t *testing.T) {
	limiter := NewMemoryLimiter(Rate{Attempts: 3, Window: time.Hour})

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("CODE")
		assert.True(t, allowed, "attempt %d", i)
		assert.Equal(t, 3-i, info.Remaining)
		require.NoError(t, limiter.RecordAttempt("CODE"))
	}

	allowed, info := limiter.Allow("CODE")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 3, info.Limit)
}

func TestMemoryLimiterWindowRoll(t *testing.T) {
	limiter := NewMemoryLimiter(Rate{Attempts: 2, Window: time.Hour})

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.NoError(t, limiter.RecordAttempt("CODE"))
	require.NoError(t, limiter.RecordAttempt("CODE"))
	allowed, _ := limiter.Allow("CODE")
	assert.False(t, allowed)

	// The window is anchored to the first attempt; once it elapses the
	// counter resets.
	now = now.Add(time.Hour)
	allowed, info := limiter.Allow("CODE")
	assert.True(t, allowed)
	assert.Equal(t, 2, info.Remaining)
}

func TestMemoryLimiterPerCodeIsolation(t *testing.T) {
	limiter := NewMemoryLimiter(Rate{Attempts: 1, Window: time.Hour})

	require.NoError(t, limiter.RecordAttempt("FIRST"))
	allowed, _ := limiter.Allow("FIRST")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow("SECOND")
	assert.True(t, allowed)
}

func TestMemoryLimiterReset(t *testing.T) {
	limiter := NewMemoryLimiter(Rate{Attempts: 1, Window: time.Hour})

	require.NoError(t, limiter.RecordAttempt("CODE"))
	allowed, _ := limiter.Allow("CODE")
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset("CODE"))
	allowed, _ = limiter.Allow("CODE")
	assert.True(t, allowed)
}

func TestMemoryLimiterConcurrentAttempts(t *testing.T) {
	limiter := NewMemoryLimiter(Rate{Attempts: 10, Window: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = limiter.RecordAttempt("CODE")
		}()
	}
	wg.Wait()

	allowed, info := limiter.Allow("CODE")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)

	limiter.mu.Lock()
	count := limiter.entries["CODE"].count
	limiter.mu.Unlock()
	assert.Equal(t, 100, count)
}
