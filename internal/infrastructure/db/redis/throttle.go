package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle is a fixed-window attempt counter backed by Redis.
// Key format: throttle:<scope>:<key>
type Throttle struct {
	client redis.UniversalClient
	scopes map[string]Limit
}

// Limit allows Max attempts per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// NewThrottle creates a Throttle. The scope of a key is its prefix up to the
// first colon ("login:alice@example.com:10.0.0.1" has scope "login"); keys
// whose scope has no limit are always allowed.
func NewThrottle(client redis.UniversalClient, scopes map[string]Limit) *Throttle {
	return &Throttle{client: client, scopes: scopes}
}

// Allow records an attempt for key and reports whether it is within budget.
// The increment and the window expiry are applied in one MULTI, and the
// expiry is only set when the counter has none, so the window never slides.
func (t *Throttle) Allow(ctx context.Context, key string) (bool, error) {
	scope, _, _ := strings.Cut(key, ":")
	limit, ok := t.scopes[scope]
	if !ok || limit.Max <= 0 {
		return true, nil
	}

	rk := "throttle:" + key
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, rk)
		pipe.ExpireNX(ctx, rk, limit.Window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("throttle incr: %w", err)
	}
	return incr.Val() <= int64(limit.Max), nil
}

// Reset clears the counter for key.
func (t *Throttle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, "throttle:"+key).Err()
}
