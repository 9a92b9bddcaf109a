package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/askhub-io/backend/internal/cache"
	"github.com/askhub-io/backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc derives the bucket key from the request (default: client IP)
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,         // 100 requests
		Window:  time.Minute, // per minute
		KeyFunc: clientIPKey,
	}
}

// AuthRateLimitConfig returns stricter limits for auth endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   10, // 10 requests
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// WriteRateLimitConfig returns limits for content-creation endpoints
func WriteRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   30, // 30 writes
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// TokenBucket for rate limiting
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed based on token availability
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	// Refill tokens based on elapsed time
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = minFloat(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// GetRetryAfter returns seconds to wait before next request
func (tb *TokenBucket) GetRetryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens < 1 {
		timeToToken := (1 - tb.tokens) / tb.refillRate
		return int(timeToToken) + 1
	}
	return 0
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// RateLimiter uses token buckets for each key
type RateLimiter struct {
	buckets map[string]*TokenBucket
	config  RateLimitConfig
	mu      sync.RWMutex
}

// NewRateLimiter creates a new rate limiting middleware
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIPKey
	}

	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		if !rl.Allow(key) {
			retryAfter := rl.GetRetryAfter(key)
			metrics.Get().RateLimitExceededTotal.WithLabelValues(c.FullPath(), c.Request.Method).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "RATE_LIMITED",
					"message":     "rate limit exceeded",
					"retry_after": retryAfter,
				},
			})
			return
		}
		c.Next()
	}
}

// Allow checks if a key is allowed to make a request
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.buckets[key]
	if !exists {
		// Refill rate: limit per window duration
		refillRate := float64(rl.config.Limit) / rl.config.Window.Seconds()
		bucket = NewTokenBucket(float64(rl.config.Limit), refillRate)
		rl.buckets[key] = bucket
	}

	return bucket.Allow()
}

// GetRetryAfter gets retry-after seconds for a key
func (rl *RateLimiter) GetRetryAfter(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	bucket, exists := rl.buckets[key]
	if !exists {
		return 1
	}
	return bucket.GetRetryAfter()
}

// RateLimit returns a middleware with default configuration
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig())
}

// RateLimitAuth returns a middleware for auth endpoints
func RateLimitAuth() gin.HandlerFunc {
	return NewRateLimiter(AuthRateLimitConfig())
}

// RateLimitWrite returns a middleware for content-creation endpoints
func RateLimitWrite() gin.HandlerFunc {
	return NewRateLimiter(WriteRateLimitConfig())
}

// smartRateLimiter prefers the distributed Redis limiter and falls back
// to the in-process token-bucket limiter when Redis is not configured.
// Both handlers are built up front; the check is per request so a Redis
// client registered after startup is picked up.
func smartRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	redisLimiter := RedisRateLimitMiddleware(config.Limit, config.Window)
	memoryLimiter := NewRateLimiter(config)

	return func(c *gin.Context) {
		if cache.GetRedisClient() == nil {
			memoryLimiter(c)
			return
		}
		redisLimiter(c)
	}
}

// RateLimitSmartDefault returns a middleware with default config that tries Redis first
func RateLimitSmartDefault() gin.HandlerFunc {
	return smartRateLimiter(DefaultRateLimitConfig())
}

// RateLimitSmartAuth returns a middleware for auth with Redis support
func RateLimitSmartAuth() gin.HandlerFunc {
	return smartRateLimiter(AuthRateLimitConfig())
}

// RateLimitSmartWrite returns a middleware for writes with Redis support
func RateLimitSmartWrite() gin.HandlerFunc {
	return smartRateLimiter(WriteRateLimitConfig())
}
