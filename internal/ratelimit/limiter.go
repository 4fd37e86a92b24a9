package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
	"github.com/tenderly-care/diagnosis-api/pkg/metrics"
)

// Info describes the current rate-limit state for one identifier.
type Info struct {
	Limit     int   `json:"limit"`
	Window    int   `json:"window"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// Limiter bounds requests per identifier to Limit per Window, using a
// rolling window of request timestamps held in the Store.
//
// When the store is unreachable the limiter fails open: enforcement is
// sacrificed for availability. A "limit exceeded" result is never swallowed.
type Limiter struct {
	store   Store
	limit   int
	window  time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLimiter(store Store, limit int, window time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Limiter {
	return &Limiter{
		store:   store,
		limit:   limit,
		window:  window,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock substitutes the time source. Test hook.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) key(identifier string) string {
	return "rate_limit:" + identifier
}

// Check admits or rejects one request from identifier. A nil return means
// the request is allowed; a rate-limited AppError means rejected.
func (l *Limiter) Check(ctx context.Context, identifier string) error {
	key := l.key(identifier)
	now := l.now()
	cutoff := now.Add(-l.window)

	if err := l.store.PurgeBefore(ctx, key, cutoff); err != nil {
		return l.failOpen(err)
	}

	count, err := l.store.Count(ctx, key)
	if err != nil {
		return l.failOpen(err)
	}

	if count >= int64(l.limit) {
		l.logger.Warn().Str("identifier", identifier).Int64("count", count).Msg("rate limit exceeded")
		l.decision("reject")
		return apperrors.NewRateLimited(l.limit, l.window)
	}

	if err := l.store.Add(ctx, key, now); err != nil {
		return l.failOpen(err)
	}
	if err := l.store.Expire(ctx, key, l.window); err != nil {
		return l.failOpen(err)
	}

	l.decision("allow")
	return nil
}

// Info reports limit state without inserting a request. When the store is
// unreachable it returns the full quota as a conservative default.
func (l *Limiter) Info(ctx context.Context, identifier string) Info {
	key := l.key(identifier)
	now := l.now()

	full := Info{
		Limit:     l.limit,
		Window:    int(l.window.Seconds()),
		Remaining: l.limit,
		ResetTime: now.Add(l.window).Unix(),
	}

	if err := l.store.PurgeBefore(ctx, key, now.Add(-l.window)); err != nil {
		l.logger.Error().Err(err).Msg("failed to get rate limit info")
		return full
	}
	count, err := l.store.Count(ctx, key)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to get rate limit info")
		return full
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	full.Remaining = remaining

	// Capacity frees when the oldest retained entry ages out of the window.
	if count > 0 {
		oldest, err := l.store.Oldest(ctx, key)
		if err != nil {
			l.logger.Error().Err(err).Msg("failed to get rate limit info")
		} else if !oldest.IsZero() {
			full.ResetTime = oldest.Add(l.window).Unix()
		}
	}
	return full
}

// Ping reports whether the backing store is reachable.
func (l *Limiter) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

func (l *Limiter) failOpen(err error) error {
	l.logger.Error().Err(err).Msg("rate limit store unavailable, allowing request")
	l.decision("fail_open")
	return nil
}

func (l *Limiter) decision(outcome string) {
	if l.metrics != nil {
		l.metrics.RateLimitDecisions.WithLabelValues(outcome).Inc()
	}
}
