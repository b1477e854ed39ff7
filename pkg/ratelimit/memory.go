package ratelimit

import (
	"sync"
	"time"
)

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter implements Limiter with an in-process map. The window is a
// fixed interval anchored to the first attempt per code; when it elapses
// the counter resets. Suitable for single-process deployments and tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	rate    Rate
	entries map[string]*windowEntry
	now     func() time.Time
}

// NewMemoryLimiter creates a new MemoryLimiter
func NewMemoryLimiter(rate Rate) *MemoryLimiter {
	return &MemoryLimiter{
		rate:    rate,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow implements Limiter.Allow
func (l *MemoryLimiter) Allow(code string) (bool, Info) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry := l.current(code, now)

	remaining := l.rate.Attempts - entry.count
	if remaining < 0 {
		remaining = 0
	}

	return entry.count < l.rate.Attempts, Info{
		Limit:     l.rate.Attempts,
		Remaining: remaining,
		Reset:     entry.windowStart.Add(l.rate.Window),
	}
}

// RecordAttempt implements Limiter.RecordAttempt
func (l *MemoryLimiter) RecordAttempt(code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.current(code, l.now())
	entry.count++
	return nil
}

// Reset implements Limiter.Reset
func (l *MemoryLimiter) Reset(code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, code)
	return nil
}

// current returns the live window entry for code, rolling over an expired
// window. Caller must hold l.mu.
func (l *MemoryLimiter) current(code string, now time.Time) *windowEntry {
	entry, ok := l.entries[code]
	if !ok || now.Sub(entry.windowStart) >= l.rate.Window {
		entry = &windowEntry{windowStart: now}
		l.entries[code] = entry
	}
	return entry
}
