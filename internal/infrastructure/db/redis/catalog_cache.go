package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheTTL = time.Hour

// CatalogCache caches serialized catalog listings in Redis. Cache failures
// are logged and treated as misses so the registry stays the source of truth.
type CatalogCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewCatalogCache creates a CatalogCache wrapping the given Redis client.
func NewCatalogCache(client *redis.Client, logger zerolog.Logger) *CatalogCache {
	return &CatalogCache{client: client, logger: logger}
}

func (c *CatalogCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
		return nil, false
	}
	return payload, true
}

func (c *CatalogCache) Set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, c.key(key), payload, cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (c *CatalogCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache invalidation failed")
		}
	}
}

func (c *CatalogCache) key(key string) string {
	return fmt.Sprintf("catalog:%s", key)
}
