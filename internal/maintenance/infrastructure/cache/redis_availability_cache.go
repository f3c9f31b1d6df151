// Package cache keeps computed availability reports in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the cache writes.
const DefaultPrefix = "upkeep:availability"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisAvailabilityCache stores reports under a generation number. Invalidate
// bumps the generation so older entries are never read again and expire on
// their TTL.
type RedisAvailabilityCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisAvailabilityCache creates a cache. A non-positive ttl defaults to 30s.
func NewRedisAvailabilityCache(client *redis.Client, prefix string, ttl time.Duration) *RedisAvailabilityCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisAvailabilityCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisAvailabilityCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *RedisAvailabilityCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisAvailabilityCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key)
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, key string) (queries.CachedAvailability, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return queries.CachedAvailability{}, err
	}
	out := queries.CachedAvailability{Generation: gen}
	raw, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("read cached availability: %w", err)
	}

	var dto queries.AvailabilityDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return out, fmt.Errorf("decode cached availability: %w", err)
	}
	out.Report = &dto
	return out, nil
}

// Set writes under gen, the generation Get returned. Once Invalidate has
// moved past gen the entry is unreachable and only waits for its TTL.
func (c *RedisAvailabilityCache) Set(ctx context.Context, key string, gen int64, a queries.AvailabilityDTO) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	if err := c.client.Set(ctx, c.entryKey(gen, key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write cached availability: %w", err)
	}
	return nil
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisAvailabilityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
