// redis.go - Shared cache backend on go-redis.
//
// Used when several ledger processes must see the same alert/summary
// cache. Same advisory semantics as the memory cache: a Redis outage
// degrades to cache misses, never to ledger failures (callers already
// treat invalidation as fire-and-forget).
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	client *redis.Client
}

// NewRedis connects a cache to the given Redis address and database.
func NewRedis(addr string, db int) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// NewRedisFromClient wraps an existing client (tests, custom options).
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return r.Invalidate(ctx, keys...)
}

func (r *Redis) Close() error { return r.client.Close() }
