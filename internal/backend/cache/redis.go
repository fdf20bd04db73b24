package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "qrcode:"

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL of zero keeps entries until evicted.
	TTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	slog.Info("Cache: connected to redis", "addr", opts.Addr, "prefix", prefix, "ttl", opts.TTL)
	return &RedisCache{client: client, prefix: prefix, ttl: opts.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
