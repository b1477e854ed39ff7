package ratelimit

import (
	"time"
)

// Rate defines the rate limit configuration
type Rate struct {
	// Attempts is the number of validation attempts allowed in the window
	Attempts int
	// Window is the time window for the rate limit
	Window time.Duration
}

// Info contains information about the current rate limit status
type Info struct {
	// Limit is the total number of attempts allowed
	Limit int
	// Remaining is the number of attempts remaining
	Remaining int
	// Reset is when the rate limit will reset
	Reset time.Time
}

// Limiter bounds validation attempts per voucher code. Allow is a pure
// check; RecordAttempt counts. Every validation attempt is recorded
// regardless of its outcome, so the limiter bounds brute-force guessing
// against the code keyspace. Implementations may hold state in memory
// (single process) or in a shared store (multiple redemption front-ends).
type Limiter interface {
	// Allow reports whether another attempt on code is currently permitted
	Allow(code string) (bool, Info)
	// RecordAttempt counts one attempt against code
	RecordAttempt(code string) error
	// Reset clears the attempt history for code
	Reset(code string) error
}

// DefaultRate bounds validation attempts per code (10 attempts / 1 hour)
var DefaultRate = Rate{
	Attempts: 10,
	Window:   time.Hour,
}
