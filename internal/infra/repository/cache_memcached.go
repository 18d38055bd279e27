package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

// MemcachedResolutionCache is the memcached-backed cache. Memcached
// has no keyspace scan, so pattern eviction uses namespace versions:
// every stored key is rewritten to include a per-prefix generation
// counter, and EvictPattern bumps the counter, orphaning every entry
// under the old generation. Orphans age out by TTL.
type MemcachedResolutionCache struct {
	mc *memcache.Client
}

func NewMemcachedResolutionCache(mc *memcache.Client) *MemcachedResolutionCache {
	return &MemcachedResolutionCache{mc: mc}
}

func (c *MemcachedResolutionCache) Get(ctx context.Context, key string) (*domain.ResolutionResult, error) {
	vkey, err := c.versionedKey(key)
	if err != nil {
		return nil, err
	}

	item, err := c.mc.Get(vkey)
	if err == memcache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache get failed")
	}

	var result domain.ResolutionResult
	if err := json.Unmarshal(item.Value, &result); err != nil {
		return nil, nil
	}
	return &result, nil
}

func (c *MemcachedResolutionCache) Set(ctx context.Context, key string, result *domain.ResolutionResult, ttlSeconds int) error {
	vkey, err := c.versionedKey(key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "cache marshal failed")
	}

	err = c.mc.Set(&memcache.Item{
		Key:        vkey,
		Value:      raw,
		Expiration: int32(ttlSeconds),
	})
	if err != nil {
		return errors.Wrap(err, "cache set failed")
	}
	return nil
}

func (c *MemcachedResolutionCache) EvictPattern(ctx context.Context, prefix string) error {
	_, err := c.mc.Increment(versionKey(prefix), 1)
	if err == memcache.ErrCacheMiss {
		// No generation counter yet means nothing was ever cached
		// under this prefix.
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "cache eviction failed")
	}
	return nil
}

// versionedKey rewrites key to include the current generation for its
// identifier prefix. The prefix is everything up to and including the
// last colon, matching the eviction prefix the usecase derives.
func (c *MemcachedResolutionCache) versionedKey(key string) (string, error) {
	prefix := key
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			prefix = key[:i+1]
			break
		}
	}

	gen, err := c.generation(prefix)
	if err != nil {
		return "", err
	}
	return prefix + "g" + strconv.FormatUint(gen, 10) + ":" + key[len(prefix):], nil
}

func (c *MemcachedResolutionCache) generation(prefix string) (uint64, error) {
	item, err := c.mc.Get(versionKey(prefix))
	if err == memcache.ErrCacheMiss {
		// Seed the counter so later Increment calls succeed.
		seedErr := c.mc.Add(&memcache.Item{Key: versionKey(prefix), Value: []byte("1")})
		if seedErr != nil && seedErr != memcache.ErrNotStored {
			return 0, errors.Wrap(seedErr, "cache version seed failed")
		}
		return 1, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "cache version lookup failed")
	}

	gen, convErr := strconv.ParseUint(string(item.Value), 10, 64)
	if convErr != nil {
		return 1, nil
	}
	return gen, nil
}

func versionKey(prefix string) string {
	return prefix + "version"
}
