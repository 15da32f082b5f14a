// Package ratelimit provides fixed-window attempt counters keyed by an
// identifier such as a client IP or an email address.
//
// Limits are advisory defense in depth. The in-memory implementation is only
// correct for a single instance; multi-instance deployments should use Redis.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a single Check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before the window resets.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Rule is an attempt budget: at most Max attempts per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	// Check records one attempt for key and reports whether it is allowed.
	Check(ctx context.Context, key string, max int, window time.Duration) (Result, error)
	// Reset forgets the window for key.
	Reset(ctx context.Context, key string) error
}
