package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const loginAttemptKeyPrefix = "login:attempts:"

// LoginLimiter is a fixed-window attempt counter shared by every instance of
// the service. Each key may be used limit times per window.
type LoginLimiter struct {
	client goredis.Cmdable
	limit  int64
	window time.Duration
}

func NewLoginLimiter(client goredis.Cmdable, limit int64, window time.Duration) *LoginLimiter {
	return &LoginLimiter{client: client, limit: limit, window: window}
}

// Allow records one attempt for key and reports whether it is within the
// limit. The window starts at the first attempt. Creating the counter with its
// TTL and incrementing it run in one MULTI/EXEC, so a counter never exists
// without an expiry.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := loginAttemptKeyPrefix + key

	var incr *goredis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SetNX(ctx, redisKey, 0, l.window)
		incr = pipe.Incr(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to record login attempt: %w", err)
	}

	return incr.Val() <= l.limit, nil
}

// Reset clears the counter for key after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, loginAttemptKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}
