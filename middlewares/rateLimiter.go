package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"civic311-be/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// counterStore is the subset of *redis.Client the limiter uses.
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter allows limit calls per client address and path in each fixed
// window. When Redis cannot be reached the call is let through.
func RateLimiter(store counterStore, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		bucket := now.Unix() / int64(window.Seconds())
		key := fmt.Sprintf("rl:%s:%s:%d", c.ClientIP(), c.Request.URL.Path, bucket)

		ctx := c.Request.Context()
		count, err := store.Incr(ctx, key).Result()
		if err != nil {
			metrics.RateLimiterErrors.Inc()
			logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		// Set TTL only for the first increment
		if count == 1 {
			if err := store.Expire(ctx, key, window).Err(); err != nil {
				metrics.RateLimiterErrors.Inc()
				logger.Warn("rate limiter failed to set expiry", zap.String("key", key), zap.Error(err))
			}
		}

		if count > int64(limit) {
			windowEnd := time.Unix((bucket+1)*int64(window.Seconds()), 0)
			retryAfter := int(windowEnd.Sub(now).Seconds()) + 1
			metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
