package store

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/metrics"
)

// CachedStore puts a redis fast path in front of a durable Store. Cache
// failures degrade to direct store access; they are logged, never surfaced.
type CachedStore struct {
	backing  Store
	rdb      *goredis.Client
	cacheTTL time.Duration
}

func NewCachedStore(backing Store, addr string, cacheTTL time.Duration) (*CachedStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &CachedStore{
		backing:  backing,
		rdb:      rdb,
		cacheTTL: cacheTTL,
	}, nil
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		metrics.Global().CacheHits.Add(1)
		return value, nil
	}
	if err != goredis.Nil {
		logging.Warn("cache read failed for %s, falling back to store: %v", key, err)
	}
	metrics.Global().CacheMisses.Add(1)

	value, err = c.backing.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if cacheErr := c.rdb.Set(ctx, key, value, c.cacheTTL).Err(); cacheErr != nil {
		logging.Warn("cache backfill failed for %s: %v", key, cacheErr)
	}
	return value, nil
}

func (c *CachedStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.backing.Put(ctx, key, value, ttl); err != nil {
		return err
	}

	cacheTTL := c.cacheTTL
	if ttl > 0 && ttl < cacheTTL {
		cacheTTL = ttl
	}
	if err := c.rdb.Set(ctx, key, value, cacheTTL).Err(); err != nil {
		logging.Warn("cache write failed for %s: %v", key, err)
	}
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	if err := c.backing.Delete(ctx, key); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		logging.Warn("cache delete failed for %s: %v", key, err)
	}
	return nil
}

// ListPrefix always goes to the durable store; sweeps need a consistent view,
// not a cached one.
func (c *CachedStore) ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	return c.backing.ListPrefix(ctx, prefix)
}

func (c *CachedStore) Close() error {
	_ = c.rdb.Close()
	return c.backing.Close()
}
