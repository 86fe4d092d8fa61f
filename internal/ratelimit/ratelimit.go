package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
)

// SourceRateLimiter enforces a minimum delay between consecutive fetches of
// the same source.
type SourceRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: source name
	cfg      config.RateLimitConfig
}

// NewSourceRateLimiter creates a rate limiter that enforces the configured
// minimum delay between consecutive fetches of the same source.
func NewSourceRateLimiter(cfg config.RateLimitConfig) *SourceRateLimiter {
	return &SourceRateLimiter{
		lastCall: make(map[string]time.Time),
		cfg:      cfg,
	}
}

// Wait blocks until enough time has passed since the last fetch of the given
// source. Returns an error if the context is cancelled while waiting.
func (r *SourceRateLimiter) Wait(ctx context.Context, source string) error {
	minDelay := r.cfg.MinDelayFor(source)

	r.mu.Lock()
	last, ok := r.lastCall[source]
	now := time.Now()

	if !ok {
		// First fetch for this source — no wait needed.
		r.lastCall[source] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= minDelay {
		// Enough time has passed — proceed immediately.
		r.lastCall[source] = now
		r.mu.Unlock()
		return nil
	}

	// Need to wait for the remainder.
	remaining := minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", source, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	r.mu.Lock()
	r.lastCall[source] = time.Now()
	r.mu.Unlock()

	return nil
}

// LimitedSource is a decorator that enforces source-level rate limiting
// before delegating to the wrapped SourceAdapter.
type LimitedSource struct {
	inner   model.SourceAdapter
	limiter *SourceRateLimiter
	name    string // which source this adapter targets
}

// NewLimitedSource wraps a SourceAdapter with source-level rate limiting.
// All adapters in a run should share the same limiter instance.
func NewLimitedSource(inner model.SourceAdapter, limiter *SourceRateLimiter, name string) *LimitedSource {
	return &LimitedSource{
		inner:   inner,
		limiter: limiter,
		name:    name,
	}
}

// Fetch waits for the rate limiter to allow a request, then delegates to the
// wrapped adapter.
func (s *LimitedSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	if err := s.limiter.Wait(ctx, s.name); err != nil {
		return nil, err
	}
	return s.inner.Fetch(ctx)
}
