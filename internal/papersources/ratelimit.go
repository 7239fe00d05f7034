// Package papersources provides the rate-limited request helpers used to talk
// to NCBI E-utilities.
package papersources

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Throttle modes accepted by NewWaiter.
const (
	// ThrottleFixed sleeps a fixed delay before every request.
	ThrottleFixed = "fixed"
	// ThrottleTokenBucket paces requests with a token bucket.
	ThrottleTokenBucket = "token_bucket"
	// ThrottleNone disables waiting entirely.
	ThrottleNone = "none"
)

// DefaultDelay is the pause inserted before every outbound call by FixedDelay.
const DefaultDelay = 400 * time.Millisecond

// Waiter blocks the caller before an outbound request is issued.
// Implementations must return promptly with ctx.Err() when ctx is done.
type Waiter interface {
	Wait(ctx context.Context) error
}

// WaiterFunc adapts a plain function to the Waiter interface.
type WaiterFunc func(ctx context.Context) error

// Wait calls f(ctx).
func (f WaiterFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// FixedDelay waits for the same duration before every request. It keeps no
// state between calls, so concurrent callers each wait independently.
type FixedDelay struct {
	Delay time.Duration
}

// Wait blocks for d.Delay or until ctx is done.
func (d FixedDelay) Wait(ctx context.Context) error {
	if d.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoWait never blocks. Useful in tests.
var NoWait Waiter = WaiterFunc(func(ctx context.Context) error { return ctx.Err() })

// RateLimiter wraps a token bucket rate limiter for controlling request rates
// to external APIs. It is safe for concurrent use because the underlying
// rate.Limiter is goroutine-safe for all operations.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// ratePerSecond is the sustained rate of requests per second.
// burst is the maximum burst size (number of tokens that can be consumed at once).
//
// NCBI allows 3 requests per second without an API key and 10 with one.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// NewWaiter builds the Waiter selected by mode.
// An empty mode selects ThrottleFixed.
func NewWaiter(mode string, delay time.Duration, ratePerSecond float64, burst int) (Waiter, error) {
	switch mode {
	case "", ThrottleFixed:
		if delay <= 0 {
			delay = DefaultDelay
		}
		return FixedDelay{Delay: delay}, nil
	case ThrottleTokenBucket:
		if ratePerSecond <= 0 {
			return nil, fmt.Errorf("token bucket rate must be positive, got %v", ratePerSecond)
		}
		if burst <= 0 {
			burst = 1
		}
		return NewRateLimiter(ratePerSecond, burst), nil
	case ThrottleNone:
		return NoWait, nil
	default:
		return nil, fmt.Errorf("unknown throttle mode %q", mode)
	}
}
