// Package ratelimiter provides a fixed-window request budget.
package ratelimiter

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrLimitExceeded is returned by callers that refuse work once the window's budget is spent.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Limiter reports whether one more operation fits the current budget, and
// when the budget is next replenished.
type Limiter interface {
	Allow() bool
	ResetIn() time.Duration
}

// RateLimiter allows at most limit operations per interval. The window
// resets on the first call after interval has elapsed since the last reset.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	interval  time.Duration
	count     int
	lastReset time.Time
	clock     clockwork.Clock
}

// NewRateLimiter creates a RateLimiter. A nil clock uses the real clock.
func NewRateLimiter(limit int, interval time.Duration, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: clock.Now(),
		clock:     clock,
	}
}

// Allow consumes one unit of budget and reports whether it was available.
// A refused call does not consume budget.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}
	if rl.count >= rl.limit {
		return false
	}
	rl.count++
	return true
}

// ResetIn returns how long until the current window ends.
func (rl *RateLimiter) ResetIn() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	d := rl.interval - rl.clock.Since(rl.lastReset)
	if d < 0 {
		return 0
	}
	return d
}
