package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func limitedRouter(l Limiter, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(l, 5, log))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		l := &stubLimiter{allow: true}
		w := get(limitedRouter(l, zap.NewNop()), "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"ratelimit:192.0.2.1"}, l.keys)
	})

	t.Run("over budget", func(t *testing.T) {
		w := get(limitedRouter(&stubLimiter{}, zap.NewNop()), "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
		assert.Equal(t, "Too many requests", decode(t, w).Message)
	})

	t.Run("limiter failure lets requests through", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		w := get(limitedRouter(&stubLimiter{err: errors.New("redis down")}, zap.New(core)), "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, logs.FilterMessage("rate limiter unavailable").Len())
	})
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "a")
	assert.False(t, ok, "burst exhausted")

	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys have separate buckets")
}

func TestLocalLimiter_DropsIdleKeys(t *testing.T) {
	l := NewLocalLimiter(1, 1)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Len(t, l.limiters, 3)

	clock = clock.Add(localIdleTTL / 2)
	ok, _ := l.Allow(ctx, "a")
	assert.True(t, ok, "bucket refilled")
	assert.Len(t, l.limiters, 3, "no sweep before the idle ttl")

	clock = clock.Add(localIdleTTL/2 + time.Second)
	ok, _ = l.Allow(ctx, "d")
	assert.True(t, ok)
	assert.Len(t, l.limiters, 2, "b and c were idle")
	assert.Contains(t, l.limiters, "a")
	assert.Contains(t, l.limiters, "d")
}

func TestRedisLimiter_UnreachableServerFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	l := NewRedisLimiter(rdb, 5)

	_, err := l.Allow(context.Background(), "ratelimit:test")
	require.Error(t, err)

	w := get(limitedRouter(l, zap.NewNop()), "")
	assert.Equal(t, http.StatusOK, w.Code)
}
