package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"qualityaudit/internal/platform/config"
)

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// New creates a Redis client from the configuration and pings it.
// Returns nil if the URL is empty (Redis not configured).
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
