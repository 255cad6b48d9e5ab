// Package papersources provides the outbound plumbing shared by bibliographic
// API clients: a rate-limited HTTP client, a pacing component for fixed delays
// between calls, and the interfaces the timeline pipeline consumes.
package papersources

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket limiter for outbound request rates.
// It is safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// ratePerSecond is the sustained rate and burst the bucket size.
//
// The public Semantic Scholar tier allows roughly one request per second,
// so the default client uses NewRateLimiter(1, 1).
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
