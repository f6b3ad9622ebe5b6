package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis, clockwork.FakeClock) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// A whole-millisecond base time, since timestamps travel as unix millis.
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewRedisLimiter(client, DefaultWindow, clock), m, clock
}

func TestRedisLimiter_Cooldown(t *testing.T) {
	ctx := context.Background()
	limiter, _, clock := newRedisLimiter(t)

	ok, remaining, err := limiter.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, remaining)

	prev, err := limiter.Touch(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, prev.IsZero())

	ok, remaining, err = limiter.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, DefaultWindow, remaining)

	clock.Advance(10 * time.Second)
	ok, remaining, err = limiter.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 50*time.Second, remaining)

	clock.Advance(50 * time.Second)
	ok, _, err = limiter.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, ok)

	// Other users share nothing.
	ok, _, err = limiter.Check(ctx, "user-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_TouchSetsWindowExpiry(t *testing.T) {
	ctx := context.Background()
	limiter, m, _ := newRedisLimiter(t)

	_, err := limiter.Touch(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, m.TTL(cooldownKeyPrefix+"user-a"))
}

func TestRedisLimiter_RestoreKeepsResidualWindow(t *testing.T) {
	ctx := context.Background()
	limiter, m, clock := newRedisLimiter(t)

	first := clock.Now()
	_, err := limiter.Touch(ctx, "user-a")
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	prev, err := limiter.Touch(ctx, "user-a")
	require.NoError(t, err)
	require.Equal(t, first.UnixMilli(), prev.UnixMilli())

	// Restoring re-derives the residual window from the previous timestamp.
	require.NoError(t, limiter.Restore(ctx, "user-a", prev))
	assert.Equal(t, 40*time.Second, m.TTL(cooldownKeyPrefix+"user-a"))

	ok, remaining, err := limiter.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, remaining)
}

func TestRedisLimiter_RestoreWithZeroPrevDeletes(t *testing.T) {
	ctx := context.Background()
	limiter, m, _ := newRedisLimiter(t)

	_, err := limiter.Touch(ctx, "user-a")
	require.NoError(t, err)

	require.NoError(t, limiter.Restore(ctx, "user-a", time.Time{}))
	assert.False(t, m.Exists(cooldownKeyPrefix+"user-a"))

	ok, _, err := limiter.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_RestoreWithElapsedPrevDeletes(t *testing.T) {
	ctx := context.Background()
	limiter, m, clock := newRedisLimiter(t)

	stale := clock.Now()
	clock.Advance(DefaultWindow + time.Second)

	_, err := limiter.Touch(ctx, "user-a")
	require.NoError(t, err)

	// The previous window has fully elapsed; nothing is worth re-arming.
	require.NoError(t, limiter.Restore(ctx, "user-a", stale))
	assert.False(t, m.Exists(cooldownKeyPrefix+"user-a"))
}

func TestRedisLimiter_FailsOpenWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRedisLimiter(client, DefaultWindow, clockwork.NewFakeClock())

	// A degraded Redis must not block submissions.
	ok, remaining, err := limiter.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, remaining)

	prev, err := limiter.Touch(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, prev.IsZero())

	// Restore surfaces the failure; callers treat it as best-effort.
	assert.Error(t, limiter.Restore(ctx, "user-a", time.Time{}))
}
