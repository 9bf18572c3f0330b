package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces tracker keys so the gateway can share a
// Redis database with other consumers (e.g. the rate limiter).
const DefaultKeyPrefix = "tabwatch:"

// RedisGateway implements Gateway on top of Redis.
type RedisGateway struct {
	client *redis.Client
	prefix string
}

var _ Gateway = (*RedisGateway)(nil)

// NewRedisGateway creates a gateway for the given Redis URL and verifies
// the connection.
func NewRedisGateway(ctx context.Context, redisURL string) (*RedisGateway, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisGateway{client: client, prefix: DefaultKeyPrefix}, nil
}

// NewRedisGatewayWithClient wraps an existing client, e.g. one shared
// with the rate-limit store.
func NewRedisGatewayWithClient(client *redis.Client) *RedisGateway {
	return &RedisGateway{client: client, prefix: DefaultKeyPrefix}
}

// Client exposes the underlying Redis client for collaborators that
// share the connection (rate limiting).
func (g *RedisGateway) Client() *redis.Client {
	return g.client
}

// Get returns the raw value for key and whether it was present.
func (g *RedisGateway) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := g.client.Get(ctx, g.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return raw, true, nil
}

// Set stores value under key, JSON-encoded.
func (g *RedisGateway) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := g.client.Set(ctx, g.prefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (g *RedisGateway) Remove(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// ClearAll deletes every key under the gateway's prefix.
func (g *RedisGateway) ClearAll(ctx context.Context) error {
	iter := g.client.Scan(ctx, 0, g.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := g.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear keys: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (g *RedisGateway) Close() error {
	return g.client.Close()
}
