package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error taxonomy of the retrieval core.
var (
	// ErrInvalidArgument indicates the caller supplied empty or malformed input.
	// It is never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProvider indicates a remote embedding, index or generation failure,
	// including malformed responses. Callers may retry with backoff.
	ErrProvider = errors.New("provider error")

	// ErrInternal indicates an invariant violation inside the core.
	ErrInternal = errors.New("internal error")

	// ErrNotConfigured indicates a required provider setting is missing.
	ErrNotConfigured = errors.New("not configured")
)

// Provider names used in ProviderError.
const (
	ProviderEmbedding  = "embedding"
	ProviderIndex      = "index"
	ProviderGeneration = "generation"
)

// ProviderError wraps a failure of one of the remote providers.
// errors.Is(err, ErrProvider) reports true for every ProviderError.
type ProviderError struct {
	// Provider is one of ProviderEmbedding, ProviderIndex or ProviderGeneration.
	Provider string

	// Op is the remote operation that failed (e.g. "embedContent", "upsert").
	Op string

	// Err is the underlying cause.
	Err error

	// RetryAfter is set when the provider rejected the call for exceeding
	// its rate limit. Zero means no hint was given.
	RetryAfter time.Duration
}

// NewProviderError builds a ProviderError for the given provider and operation.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// Error implements error.
func (e *ProviderError) Error() string {
	if e.Cancelled() {
		return fmt.Sprintf("%s provider: %s: cancelled: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches ErrProvider.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// Cancelled reports whether the call was aborted by context cancellation or deadline.
func (e *ProviderError) Cancelled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// InvalidArgument returns an error wrapping ErrInvalidArgument with a message.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Internal returns an error wrapping ErrInternal with a message.
func Internal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// IsProvider reports whether err came from the named provider.
func IsProvider(err error, provider string) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Provider == provider
}

// RetryAfterHint returns the rate-limit backoff carried by err, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.RetryAfter <= 0 {
		return 0, false
	}
	return pe.RetryAfter, true
}
