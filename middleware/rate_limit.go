package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"grocery-marketplace-api/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix = "ratelimit:"
	rateLimitWindow    = time.Second
)

// Limiter decides whether one more request for key fits in its budget
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed one-second window shared by every instance
type RedisLimiter struct {
	rdb   *redis.Client
	limit int
}

func NewRedisLimiter(rdb *redis.Client, limitPerSec int) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limitPerSec}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, rateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// localIdleTTL is how long a key can go unseen before its bucket is dropped.
// A bucket idle that long has refilled, so a fresh one behaves the same.
const localIdleTTL = 3 * time.Minute

type localEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// LocalLimiter keeps a token bucket per key in process memory
type LocalLimiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	limiters  map[string]*localEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewLocalLimiter(rps, burst int) *LocalLimiter {
	return &LocalLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		limiters:  make(map[string]*localEntry),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= localIdleTTL {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &localEntry{lim: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = e
	}
	e.seen = now
	l.mu.Unlock()
	return e.lim.AllowN(now, 1), nil
}

// sweep drops buckets idle for longer than localIdleTTL. Callers hold mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for key, e := range l.limiters {
		if now.Sub(e.seen) > localIdleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// RateLimit limits requests per client IP. If the limiter itself fails the
// request is let through.
func RateLimit(l Limiter, limitPerSec int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKeyPrefix + c.ClientIP()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ok, err := l.Allow(ctx, key)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limitPerSec))
		c.Next()
	}
}
