package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cecimongo/identity-api/internal/core/domain"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

// Option customises a service at construction time.
type Option func(*options)

type options struct {
	now            func() time.Time
	throttle       ports.Throttle
	reuseDetection bool
}

func newOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithThrottle limits login attempts, code sends and code guesses.
func WithThrottle(t ports.Throttle) Option {
	return func(o *options) { o.throttle = t }
}

// WithReuseDetection makes a replayed rotated refresh token revoke its
// active descendants.
func WithReuseDetection(enabled bool) Option {
	return func(o *options) { o.reuseDetection = enabled }
}

// allow consults the throttle. Backend failures never block the caller.
func (o options) allow(ctx context.Context, log zerolog.Logger, key string) error {
	if o.throttle == nil {
		return nil
	}
	ok, err := o.throttle.Allow(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("throttle check failed, allowing attempt")
		return nil
	}
	if !ok {
		return domain.ErrTooManyAttempts
	}
	return nil
}

// reset clears the counters of a completed flow. Failures are logged only.
func (o options) reset(ctx context.Context, log zerolog.Logger, keys ...string) {
	if o.throttle == nil {
		return
	}
	for _, key := range keys {
		if err := o.throttle.Reset(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("throttle reset failed")
		}
	}
}

// internal logs an unexpected failure and wraps it as ErrInternal.
func internal(log zerolog.Logger, op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("operation failed")
	return fmt.Errorf("%s: %w: %w", op, domain.ErrInternal, err)
}
