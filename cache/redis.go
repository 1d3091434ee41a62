// Package cache wraps the Redis backing store for the gateway's cache
// passthrough endpoints. The gateway keeps no cache state of its own;
// every operation translates directly to a Redis command.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gnishant95/forge/errors"
	"github.com/gnishant95/forge/pkg/retry"
)

// Client is a thin wrapper over the Redis connection
type Client struct {
	rdb *redis.Client
}

// Connect dials Redis at addr, retrying with backoff while the store is
// still starting. It returns once a ping succeeds or attempts run out.
func Connect(ctx context.Context, addr, password string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	err := retry.Do(ctx, retry.Startup(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, errors.WrapTransient(err, "cache", "Connect", "ping "+addr)
	}

	return &Client{rdb: rdb}, nil
}

// Ping checks connection liveness
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the value stored under key. The second return reports
// whether the key existed; a missing key is not an error.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.WrapTransient(err, "cache", "Get", key)
	}
	return val, true, nil
}

// Set stores value under key with an optional TTL (zero means no expiry)
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.WrapTransient(err, "cache", "Set", key)
	}
	return nil
}

// Delete removes key and reports whether it existed
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, errors.WrapTransient(err, "cache", "Delete", key)
	}
	return n > 0, nil
}

// Close releases the underlying connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
