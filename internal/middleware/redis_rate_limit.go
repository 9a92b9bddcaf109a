package middleware

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/askhub-io/backend/internal/cache"
	"github.com/askhub-io/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a distributed rate limiter using Redis.
// It works across multiple instances; when Redis is not configured the
// request is allowed through with a warning, but when Redis is present
// and failing the request is rejected.
func RedisRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			// Fallback: If Redis isn't available, let request through but log warning
			logger.Log.Warn("Redis rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		clientIP := getClientIP(c.Request.RemoteAddr)
		key := fmt.Sprintf("rate_limit:%s", clientIP)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		count, err := redisClient.Incr(ctx, key)
		if err != nil {
			// On Redis error, reject request to maintain security.
			// Allowing requests through when the rate limiter is broken
			// opens the API to abuse.
			logger.Log.Error("Rate limit check failed - rejecting request",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.JSON(503, gin.H{"success": false, "error": gin.H{"code": "SERVICE_UNAVAILABLE", "message": "service temporarily unavailable"}})
			c.Abort()
			return
		}

		// Set expiration on first request in this window
		if count == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
			}
		}

		if count > int64(maxRequests) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", maxRequests),
				zap.Int64("current_requests", count),
			)
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.JSON(429, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "RATE_LIMITED",
					"message":     "rate limit exceeded",
					"retry_after": window.Seconds(),
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getClientIP extracts the client IP from RemoteAddr
func getClientIP(remoteAddr string) string {
	if ip, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return ip
	}
	return remoteAddr
}
