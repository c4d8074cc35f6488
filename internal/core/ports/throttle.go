package ports

import "context"

// Throttle counts attempts per key and reports whether another is allowed.
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
