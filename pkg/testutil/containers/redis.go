//go:build integration

package containers

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer wraps a testcontainers Redis instance.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

func startRedis() (*RedisContainer, error) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, fmt.Errorf("run redis: %w", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("redis connection string: %w", err)
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisContainer{Container: container, URL: url, Client: client}, nil
}

// FlushAll removes all keys from the Redis database.
// Use between tests to ensure isolation.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
