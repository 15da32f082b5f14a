package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc derives the limiter key for a request.
type KeyFunc func(c *gin.Context) string

// ByClientIP keys requests by client IP and route.
func ByClientIP(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return "ip:" + c.ClientIP() + ":" + path
}

// Middleware rejects requests with 429 once the key exhausted rule.
// Limiter failures are logged and the request is let through.
func Middleware(l Limiter, rule Rule, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || rule.Max <= 0 {
			c.Next()
			return
		}
		key := keyFn(c)
		res, err := l.Check(c.Request.Context(), key, rule.Max, rule.Window)
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err, "key", key)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retry := res.RetryAfter(time.Now())
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			slog.Warn("rate limit hit", "key", key, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
