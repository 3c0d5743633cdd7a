// Package cache provides the Dragonfly/Redis client used for progress storage.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tunes the client beyond what the URL carries. Zero values keep the defaults.
type Options struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// Cache wraps a Redis/Dragonfly client.
type Cache struct {
	Client *redis.Client
}

// ParseURL validates a Redis connection URL and applies opts.
func ParseURL(url string, opts Options) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}

	ro.DialTimeout = orDefault(opts.DialTimeout, 5*time.Second)
	ro.ReadTimeout = orDefault(opts.ReadTimeout, 3*time.Second)
	ro.WriteTimeout = orDefault(opts.WriteTimeout, 3*time.Second)
	if opts.PoolSize > 0 {
		ro.PoolSize = opts.PoolSize
	}
	return ro, nil
}

// New connects and pings the cache.
func New(ctx context.Context, url string, opts Options) (*Cache, error) {
	ro, err := ParseURL(url, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(ro)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
