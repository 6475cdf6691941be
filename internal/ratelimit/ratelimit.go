package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter on Redis. The first hit in a window
// sets the expiry; once the count passes the limit the window rejects.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLimiter constructs a limiter.
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, limit: limit, window: window}
}

// Allow counts one hit under the key and reports whether it fits the window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return true, err
		}
	}
	return count <= int64(l.limit), nil
}
