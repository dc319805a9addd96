package ratelimit

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Decision is the outcome of a sliding-window check. Limit/Remaining/ResetAt
// feed the X-RateLimit response headers; RetryAfter is only set when blocked.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Status is a non-mutating snapshot of one counter window.
type Status struct {
	Count     int64
	Remaining int
	ResetAt   time.Time
}

// Limiter implements sliding-window rate limiting over a shared CounterStore.
//
// Store failures fail open: a broken counter store must degrade to "no rate
// limiting" rather than turn the limiter into an outage vector for submission
// intake. This is a deliberate policy (the opposite of the captcha check,
// which fails closed).
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// CheckAndConsume reserves an event in one atomic store step (purge, insert,
// count) and hands the reservation back when it exceeds the budget, so racing
// callers on one key observe distinct counts and the (N+1)th call within the
// window is denied without consuming budget.
func (l *Limiter) CheckAndConsume(ctx context.Context, key string, limit int, window time.Duration) Decision {
	now := l.now()
	cutoff := now.Add(-window)

	count, err := l.store.ReserveEvent(ctx, key, cutoff, now, window)
	if err != nil {
		log.Errorf("[RateLimit] counter store unavailable for %s, failing open: %v", key, err)
		return Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: now.Add(window)}
	}

	if count > int64(limit) {
		if rerr := l.store.ReleaseEvent(ctx, key, now); rerr != nil {
			log.Errorf("[RateLimit] failed to release denied reservation for %s: %v", key, rerr)
		}
		_, oldest, serr := l.store.Count(ctx, key)
		resetAt := now.Add(window)
		if serr == nil && !oldest.IsZero() {
			resetAt = oldest.Add(window)
		}
		retryAfter := resetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter,
		}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}
}

// Status reports the current window state without consuming budget. Returns
// nil when the key has no recorded events.
func (l *Limiter) Status(ctx context.Context, key string, limit int, window time.Duration) (*Status, error) {
	count, oldest, err := l.store.Count(ctx, key)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	resetAt := oldest.Add(window)
	return &Status{Count: count, Remaining: remaining, ResetAt: resetAt}, nil
}
