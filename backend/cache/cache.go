package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotAvailable = errors.New("cache not available")
	ErrNotFound     = errors.New("cache not found")
)

// Client is a thin read-cache over Redis for the public catalog endpoints.
// A nil underlying connection degrades gracefully: reads miss, writes are
// dropped, the API keeps serving from the database.
type Client struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// Connect opens a Redis connection, or returns nil when no address is
// configured so the service runs cache-less.
func Connect(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Client {
	return &Client{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Client) key(k string) string {
	return c.prefix + k
}

// Get unmarshals a cached value into dest.
func (c *Client) Get(ctx context.Context, k string, dest interface{}) error {
	if c.rdb == nil {
		return ErrNotAvailable
	}

	data, err := c.rdb.Get(ctx, c.key(k)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Set marshals and stores a value under the client's TTL.
func (c *Client) Set(ctx context.Context, k string, value interface{}) {
	if c.rdb == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("cache marshal error", "error", err, "key", k)
		return
	}

	if err := c.rdb.Set(ctx, c.key(k), data, c.ttl).Err(); err != nil {
		slog.Error("cache set error", "error", err, "key", k)
	}
}

// Delete drops cached values, used by catalog mutations to invalidate reads.
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if c.rdb == nil || len(keys) == 0 {
		return
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		slog.Error("cache delete error", "error", err, "keys", keys)
	}
}
