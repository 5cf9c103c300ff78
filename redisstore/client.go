package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client together with the key namespace of this deployment
type Client struct {
	*redis.Client
	prefix string
}

// Open creates a new Redis client and pings it to validate the connection
func Open(ctx context.Context, addr, password string, db int, prefix string) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}

	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{Client: c, prefix: prefix}, nil
}

// key namespaces a key with the configured prefix
func (c *Client) key(parts ...any) string {
	k := c.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += fmt.Sprint(p)
	}
	return k
}
