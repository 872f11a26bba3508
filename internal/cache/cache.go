package cache

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a thin redis wrapper that degrades to a no-op cache when redis is
// absent or unreachable: reads behave like misses and writes are dropped, so
// callers never fail a request over cache trouble. A nil *Client is valid and
// caches nothing, which keeps service tests free of redis.
type Client struct {
	rdb *redis.Client
}

// New connects to redis at addr. The connection is lazy; an unreachable
// server only shows up as misses.
func New(addr, password string, db int) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Get returns the value for key, or nil on a miss or redis failure.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return data, nil
	case stderrors.Is(err, redis.Nil):
		return nil, nil
	default:
		// unreachable redis reads as a miss
		return nil, nil
	}
}

// Set stores value under key for ttl, dropping redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	_ = c.rdb.Set(ctx, key, value, ttl).Err()
	return nil
}

// Delete removes key, dropping redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	_ = c.rdb.Del(ctx, key).Err()
	return nil
}
