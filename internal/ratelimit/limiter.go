package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter is the process-wide token bucket guarding the provider's
// account-level request budget. The pool is intentionally shared across all
// callers and scopes: the quota it protects is global, not per-user.
//
// Tokens refill continuously at perMinute/60 per second and are capped at
// perMinute, so over any rolling 60 second window consumption cannot exceed
// the configured budget plus whatever burst was already banked.
type Limiter struct {
	limiter   *rate.Limiter
	perMinute int
}

// New constructs a limiter from a requests-per-minute budget.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Limiter{
		limiter:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		perMinute: perMinute,
	}
}

// Acquire blocks until one token is available or the context is cancelled.
// There is no failure mode beyond delay: a token consumed by a caller that
// later abandons its request is never refunded, since the request may have
// already reached the provider.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait aborted: %w", err)
	}
	return nil
}

// TryAcquire consumes a token without blocking and reports whether one was
// available.
func (l *Limiter) TryAcquire() bool {
	return l.limiter.Allow()
}

// Tokens returns the current token count. Observed values stay within
// [0, capacity] outside of in-flight reservations.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// Capacity returns the bucket capacity (the per-minute budget).
func (l *Limiter) Capacity() int {
	return l.perMinute
}
