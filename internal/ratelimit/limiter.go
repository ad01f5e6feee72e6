// Package ratelimit throttles calls to remote providers.
//
// It uses a token bucket with an optional backoff window that is opened
// when a provider answers with a rate-limit error.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// DefaultBackoff applies when a provider signals a rate limit without a hint.
const DefaultBackoff = 60 * time.Second

// Ensure Limiter implements the interface.
var _ driven.RateLimiter = (*Limiter)(nil)

// Limiter spaces out calls to a provider.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// New creates a limiter that admits one call per interval with the given
// burst. An interval of zero disables throttling; backoff still applies.
func New(interval time.Duration, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// FromSettings builds a limiter from rate limit settings.
func FromSettings(s domain.RateLimitSettings) *Limiter {
	return New(s.Interval, s.Burst)
}

// Wait blocks until a call can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := retryAt.Sub(l.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// RecordRateLimitError opens a backoff window. Call this when a provider
// answers 429. A non-positive retryAfter uses DefaultBackoff.
func (l *Limiter) RecordRateLimitError(retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = DefaultBackoff
	}
	until := l.now().Add(retryAfter)
	if until.After(l.retryAt) {
		l.retryAt = until
	}
}

// Allow reports whether a call can be made immediately without blocking.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if l.now().Before(retryAt) {
		return false
	}
	return l.limiter.Allow()
}
