package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter provides a fixed-window request limiter backed by Redis.
// Key format: ratelimit:<caller_id>:<window_start_unix>
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window
// for each caller.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow reports whether callerID may make another request in the current
// window. The counter key expires with the window, so idle callers cost
// nothing.
func (l *RateLimiter) Allow(ctx context.Context, callerID string) (bool, error) {
	key := l.key(callerID, time.Now())

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return n <= l.limit, nil
}

func (l *RateLimiter) key(callerID string, now time.Time) string {
	windowStart := now.Truncate(l.window).Unix()
	return fmt.Sprintf("ratelimit:%s:%d", callerID, windowStart)
}
