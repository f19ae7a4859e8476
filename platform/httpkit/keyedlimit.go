// Package httpkit provides HTTP middleware infrastructure.
package httpkit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"leadgate_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RequesterRateLimiter limits requests per authenticated requester using a
// Redis sliding window. The window is approximated from the current and
// previous fixed windows, weighted by elapsed time, so limits stay correct
// across multiple service instances.
type RequesterRateLimiter struct {
	rdb       *redis.Client
	perWindow int
	window    time.Duration
	log       *logger.Logger
}

// NewRequesterRateLimiter creates a limiter allowing perMinute requests per
// requester per minute. A nil Redis client disables limiting.
func NewRequesterRateLimiter(rdb *redis.Client, perMinute int, log *logger.Logger) *RequesterRateLimiter {
	return &RequesterRateLimiter{
		rdb:       rdb,
		perWindow: perMinute,
		window:    time.Minute,
		log:       log,
	}
}

// Allow reports whether the given key may proceed, incrementing its counter.
func (r *RequesterRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.rdb == nil || r.perWindow <= 0 {
		return true, nil
	}

	now := time.Now()
	windowStart := now.Truncate(r.window)
	currentKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())
	previousKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Add(-r.window).Unix())

	pipe := r.rdb.Pipeline()
	currentCmd := pipe.Incr(ctx, currentKey)
	pipe.Expire(ctx, currentKey, 2*r.window)
	previousCmd := pipe.Get(ctx, previousKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, err
	}

	current := currentCmd.Val()
	previous, _ := previousCmd.Int64()

	// Weight the previous window by how much of it still overlaps the
	// sliding window ending now.
	elapsed := now.Sub(windowStart).Seconds() / r.window.Seconds()
	weighted := float64(previous)*(1-elapsed) + float64(current)

	return weighted <= float64(r.perWindow), nil
}

// Middleware enforces the limit for the authenticated requester.
// Unauthenticated requests pass through; auth middleware rejects them later.
func (r *RequesterRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if !id.IsAuthenticated() {
			c.Next()
			return
		}

		allowed, err := r.Allow(c.Request.Context(), id.RequesterID().String())
		if err != nil {
			// Fail open on Redis errors; unlock correctness does not
			// depend on the limiter.
			if r.log != nil {
				r.log.Warn("requester rate limiter unavailable", "error", err)
			}
			c.Next()
			return
		}

		if !allowed {
			if r.log != nil {
				r.log.RateLimitExceeded(c.ClientIP(), c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
