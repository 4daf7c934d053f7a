package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/ariebrainware/medlink/config"
	"github.com/ariebrainware/medlink/util"
	"github.com/gin-gonic/gin"
)

const (
	defaultRateLimit  = 5
	defaultRateWindow = 15 * time.Minute
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

func rateLimitKey(endpoint, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
}

// RateLimiter counts requests per client IP and path in fixed Redis windows
// and answers 429 once the limit is passed. Without Redis every request is
// allowed.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path

		allowed, err := checkRateLimit(c.Request.Context(), rateLimitKey(endpoint, clientIP), cfg.Limit, cfg.Window)
		if err != nil {
			// Fail open so a Redis outage does not lock everyone out.
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventSuspiciousActivity,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			util.LogRateLimitExceeded(clientIP, endpoint)
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: fmt.Errorf("rate limit exceeded"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimit reports whether the request is within the limit.
func checkRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return true, nil
	}

	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incr.Val() <= int64(limit), nil
}

// ResetRateLimit clears the counter of one client on one endpoint. Without
// Redis there is no counter, so it is a no-op.
func ResetRateLimit(ctx context.Context, clientIP, endpoint string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, rateLimitKey(endpoint, clientIP)).Err()
}
