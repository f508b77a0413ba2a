package ratelimit

import (
	"context"
	"time"

	"github.com/alltechdigital/leads-api/pkg/logging"
)

// Result describes a rate limit decision for one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds a rejected caller should wait,
// rounding up so the advertised wait is never short.
func (r Result) RetryAfter() int {
	secs := int(time.Until(r.ResetAt).Seconds())
	if float64(secs) < time.Until(r.ResetAt).Seconds() {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter enforces a fixed-window request ceiling per key. Counter storage
// failures fail open: a broken Redis must not take the contact form down.
type Limiter struct {
	store  CounterStore
	window time.Duration
	max    int
	logger *logging.Logger
}

// NewLimiter creates a limiter allowing max requests per window per key.
func NewLimiter(store CounterStore, window time.Duration, max int, logger *logging.Logger) *Limiter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Limiter{store: store, window: window, max: max, logger: logger}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) Result {
	count, resetAt, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.logger.Error("rate limit store unavailable", "error", err, "key", key)
		return Result{Allowed: true, Limit: l.max, Remaining: l.max, ResetAt: time.Now().Add(l.window)}
	}

	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
