// Package cache holds the short-lived schema introspection entries. Values are
// stored as JSON so the in-process and Redis tiers behave the same way.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Store is a TTL key/value store for JSON-serializable values.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Clear(ctx context.Context) error
}
