package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	drawGateKey  = "roll_done"
	drawGateDone = "yes"
)

// DrawGate persists the one-way "draw happened" flag
type DrawGate struct {
	client *Client
}

// NewDrawGate creates a new draw gate
func NewDrawGate(client *Client) *DrawGate {
	return &DrawGate{client: client}
}

// IsClosed reports whether the draw already happened
func (g *DrawGate) IsClosed(ctx context.Context) (bool, error) {
	val, err := g.client.Get(ctx, g.client.key(drawGateKey)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read draw gate: %w", err)
	}
	return val == drawGateDone, nil
}

// Close marks the draw as done. The flag never expires.
func (g *DrawGate) Close(ctx context.Context) error {
	if err := g.client.Set(ctx, g.client.key(drawGateKey), drawGateDone, 0).Err(); err != nil {
		return fmt.Errorf("failed to close draw gate: %w", err)
	}
	return nil
}

// Reopen clears the flag. Only operator tooling and tests use it.
func (g *DrawGate) Reopen(ctx context.Context) error {
	if err := g.client.Del(ctx, g.client.key(drawGateKey)).Err(); err != nil {
		return fmt.Errorf("failed to reopen draw gate: %w", err)
	}
	return nil
}
