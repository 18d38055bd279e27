package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

// RedisResolutionCache stores complete resolution outcomes as JSON
// documents under the usecase-provided key, which already carries the
// per-identifier prefix. Pattern eviction walks the keyspace with
// SCAN so a mutation can drop every parameter variation in one call.
type RedisResolutionCache struct {
	rdb *redis.Client
}

func NewRedisResolutionCache(rdb *redis.Client) *RedisResolutionCache {
	return &RedisResolutionCache{rdb: rdb}
}

func (c *RedisResolutionCache) Get(ctx context.Context, key string) (*domain.ResolutionResult, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache get failed")
	}

	var result domain.ResolutionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// A corrupt entry is a miss, not a fault.
		return nil, nil
	}
	return &result, nil
}

func (c *RedisResolutionCache) Set(ctx context.Context, key string, result *domain.ResolutionResult, ttlSeconds int) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "cache marshal failed")
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "cache set failed")
	}
	return nil
}

func (c *RedisResolutionCache) EvictPattern(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "cache scan failed")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "cache delete failed")
	}
	return nil
}
