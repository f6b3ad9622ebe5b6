package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "cooldown:comment:"

// RedisLimiter shares the cooldown window across instances by storing the
// last-action timestamp under a key that expires with the window. Redis
// errors fail open: a degraded cache must not block readers from commenting.
type RedisLimiter struct {
	rdb    *redis.Client
	window time.Duration
	clock  clockwork.Clock
}

// NewRedisLimiter creates a Redis-backed limiter. A zero or negative window
// falls back to DefaultWindow.
func NewRedisLimiter(rdb *redis.Client, window time.Duration, clock clockwork.Clock) *RedisLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisLimiter{rdb: rdb, window: window, clock: clock}
}

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, userID string) (bool, time.Duration, error) {
	val, err := l.rdb.Get(ctx, cooldownKeyPrefix+userID).Result()
	if err == redis.Nil {
		return true, 0, nil
	}
	if err != nil {
		return true, 0, nil // fail-open
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return true, 0, nil
	}
	last := time.UnixMilli(millis)
	now := l.clock.Now()
	if CanProceed(last, now, l.window) {
		return true, 0, nil
	}
	return false, Remaining(last, now, l.window), nil
}

// Touch implements Limiter.
func (l *RedisLimiter) Touch(ctx context.Context, userID string) (time.Time, error) {
	key := cooldownKeyPrefix + userID
	now := l.clock.Now()

	prev := time.Time{}
	if val, err := l.rdb.Get(ctx, key).Result(); err == nil {
		if millis, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			prev = time.UnixMilli(millis)
		}
	}

	if err := l.rdb.Set(ctx, key, now.UnixMilli(), l.window).Err(); err != nil {
		return prev, nil // fail-open, the in-flight submission proceeds
	}
	return prev, nil
}

// Restore implements Limiter.
func (l *RedisLimiter) Restore(ctx context.Context, userID string, prev time.Time) error {
	key := cooldownKeyPrefix + userID
	if prev.IsZero() {
		return l.rdb.Del(ctx, key).Err()
	}
	ttl := Remaining(prev, l.clock.Now(), l.window)
	if ttl <= 0 {
		return l.rdb.Del(ctx, key).Err()
	}
	return l.rdb.Set(ctx, key, prev.UnixMilli(), ttl).Err()
}
