package store

import (
	"context"
	"time"

	"filmwhisper/internal/domain/entity"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the exact-match result cache. Keys follow the namespaces
// the rest of the system depends on: user:{id}:recent-{type} for
// watch-history responses, {type}:name:{title} and {type}:{imdbID} for
// per-title metadata.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, entity.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Ping backs the health endpoint.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IncrCounter tracks install/request counters shown on the configure page.
func (r *RedisCache) IncrCounter(ctx context.Context, name string) error {
	return r.client.Incr(ctx, name).Err()
}
