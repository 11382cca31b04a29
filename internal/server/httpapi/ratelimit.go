package httpapi

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RateLimitStore counts hits in a fixed window.
type RateLimitStore interface {
	// Hit records one request for key and returns the count within the
	// current window and the time left until it resets.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisRateLimitStore keeps one INCR counter per key and window.
type RedisRateLimitStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisRateLimitStore(client redis.Cmdable, prefix string) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, prefix: prefix}
}

func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := key
	if s.prefix != "" {
		k = s.prefix + ":" + key
	}

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr: %w", err)
	}

	ttl, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis pttl: %w", err)
	}

	// First hit of a window, or a counter left without expiry.
	if count == 1 || ttl < 0 {
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis pexpire: %w", err)
		}
		ttl = window
	}

	return count, ttl, nil
}

// RateLimiter limits requests per client IP and route. Store failures let
// the request through.
type RateLimiter struct {
	store  RateLimitStore
	limit  int
	window time.Duration
	logger logging.Logger
}

func NewRateLimiter(store RateLimitStore, limit int, window time.Duration, logger logging.Logger) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window, logger: logger}
}

// Handler returns the gin middleware. A nil receiver or a non-positive
// limit disables limiting.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	if rl == nil || rl.store == nil || rl.limit <= 0 || rl.window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := "auth:" + c.FullPath() + ":" + c.ClientIP()

		count, ttl, err := rl.store.Hit(c.Request.Context(), key, rl.window)
		if err != nil {
			rl.logger.Warn(c.Request.Context(), "rate limit check failed", "error", err)
			c.Next()
			return
		}

		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, messageResponse{Message: "too many requests"})
			return
		}

		c.Next()
	}
}
