package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// Source is a decorator that retries transient fetch failures with
// exponential backoff and jitter before delegating to the wrapped
// SourceAdapter.
type Source struct {
	inner      model.SourceAdapter
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewSource wraps a SourceAdapter with retry logic.
// maxRetries is the number of additional attempts after the first failure (default: 2).
// baseDelay is the delay before the first retry (default: 5s), doubled on each subsequent retry.
func NewSource(inner model.SourceAdapter, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Source {
	return &Source{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Fetch attempts to fetch records, retrying on transient errors.
func (s *Source) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	records, err := s.inner.Fetch(ctx)
	if err == nil {
		return records, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	var lastErr error = err
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		delay := s.backoffDelay(attempt, lastErr)

		s.logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		records, err = s.inner.Fetch(ctx)
		if err == nil {
			return records, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (s *Source) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := s.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation — never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A record the source handed back in a shape we cannot use is not a
	// transport problem. Retrying would fetch the same payload again.
	var malformed *model.MalformedRecordError
	if errors.As(err, &malformed) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests — retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx — retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429) — not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.) — retryable.
	return true
}
