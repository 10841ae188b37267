// Package ratelimit paces requests to a single remote catalog.
package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// ErrThrottled marks a request that gave up waiting for its turn.
var ErrThrottled = errors.New("rate limited")

// Limiter wraps rate.Limiter with the catalog name it guards.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New returns a limiter allowing requestsPerSecond with the given burst.
// A non-positive rate disables limiting; a burst below one is raised to one.
func New(name string, requestsPerSecond float64, burst int) *Limiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		name:    name,
	}
}

// Wait blocks until a request may proceed or ctx is done. Failures wrap
// both ErrThrottled and the underlying cause.
// A nil limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w: %w", l.name, ErrThrottled, err)
	}
	return nil
}
