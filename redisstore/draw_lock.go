package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const drawLockKey = "draw_lock"

// releaseScript deletes the lock only while it still belongs to the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only while the lock still belongs to the caller
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// DrawLock is a token-owned lock shared by every instance of the bot. The TTL
// frees it if the holder crashes mid-draw.
type DrawLock struct {
	client *Client
}

// NewDrawLock creates a new draw lock
func NewDrawLock(client *Client) *DrawLock {
	return &DrawLock{client: client}
}

// Acquire tries to take the lock for ttl
func (l *DrawLock) Acquire(ctx context.Context, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.client.key(drawLockKey), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire draw lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock if token still owns it
func (l *DrawLock) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.client.key(drawLockKey)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release draw lock: %w", err)
	}
	return nil
}

// Extend resets the lock's TTL. ok is false when token no longer owns the lock.
func (l *DrawLock) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{l.client.key(drawLockKey)}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to extend draw lock: %w", err)
	}
	return n == 1, nil
}
