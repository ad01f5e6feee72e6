package driven

import (
	"context"
	"time"
)

// RateLimiter paces calls to a rate-limited provider.
type RateLimiter interface {
	// Wait blocks until the next call may proceed or ctx is done.
	Wait(ctx context.Context) error
}

// RateLimitRecorder is implemented by limiters that can back off after a
// provider reports that its rate limit was exceeded.
type RateLimitRecorder interface {
	// RecordRateLimitError pauses further calls for retryAfter.
	RecordRateLimitError(retryAfter time.Duration)
}
