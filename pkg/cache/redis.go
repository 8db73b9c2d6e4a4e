package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const connectAttempts = 3

// RedisStore shares introspection entries between replicas. Every key is
// namespaced by prefix so Clear only touches this store's keys.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore parses url, sizes the pool and pings with retries.
func NewRedisStore(ctx context.Context, url, prefix string, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			logger.Info("connected to redis", zap.String("addr", opt.Addr))
			return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
		}
		logger.Warn("redis connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", connectAttempts, err)
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string, dest any) error {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis error: %w", err)
	}

	if err := sonic.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value for %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := r.client.Set(ctx, r.key(key), payload, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix using SCAN, never KEYS.
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	return nil
}

func (r *RedisStore) HealthCheck(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Tiered reads from the local store first and falls back to the shared one,
// back-filling local on a shared hit. Writes go to both.
type Tiered struct {
	Local  Store
	Shared Store
	TTL    time.Duration
}

func (t *Tiered) Get(ctx context.Context, key string, dest any) error {
	if err := t.Local.Get(ctx, key, dest); err == nil {
		return nil
	}
	if t.Shared == nil {
		return ErrCacheMiss
	}
	if err := t.Shared.Get(ctx, key, dest); err != nil {
		return ErrCacheMiss
	}
	_ = t.Local.Set(ctx, key, dest, t.TTL)
	return nil
}

func (t *Tiered) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := t.Local.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if t.Shared != nil {
		return t.Shared.Set(ctx, key, value, ttl)
	}
	return nil
}

func (t *Tiered) Clear(ctx context.Context) error {
	if err := t.Local.Clear(ctx); err != nil {
		return err
	}
	if t.Shared != nil {
		return t.Shared.Clear(ctx)
	}
	return nil
}
