package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for NewRedisClient.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewRedisClient connects and pings within three seconds.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// RedisCache is a Cache backed by Redis. Values are stored as JSON with a
// server-side expiry. Redis failures degrade to cache misses.
type RedisCache[V any] struct {
	client    redis.Cmdable
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

var _ Cache[int] = (*RedisCache[int])(nil)

// NewRedis creates a cache whose keys live under namespace.
func NewRedis[V any](client redis.Cmdable, namespace string, ttl time.Duration, logger *slog.Logger) *RedisCache[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache[V]{client: client, namespace: namespace, ttl: ttl, logger: logger}
}

func (c *RedisCache[V]) key(k string) string {
	return c.namespace + ":" + k
}

// Get returns the decoded value for key, or false on a miss or any error.
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		c.logger.Warn("redis cache get failed", "key", c.key(key), "error", err)
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("redis cache decode failed", "key", c.key(key), "error", err)
		return zero, false
	}
	return v, true
}

// Set stores value under key with the cache TTL.
func (c *RedisCache[V]) Set(ctx context.Context, key string, value V) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis cache encode failed", "key", c.key(key), "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache set failed", "key", c.key(key), "error", err)
	}
}

// Delete removes key.
func (c *RedisCache[V]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn("redis cache delete failed", "key", c.key(key), "error", err)
	}
}
