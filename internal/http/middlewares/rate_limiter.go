package middlewares

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit rejects callers over the limiter's budget with 429. A limiter
// backend error lets the request through.
func RateLimit(limiter ratelimit.Limiter, keyFn func(*gin.Context) string, prom *observability.Prom) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = "ip:" + clientIP(c)
		}

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		if !d.Allowed {
			prom.RateLimited(c.FullPath())

			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	// forwarded headers only count from cfg.TrustedProxies
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
