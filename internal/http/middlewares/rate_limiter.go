package middlewares

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/modelhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit rejects requests once keyFn's bucket is exhausted. When the
// limiter itself fails the request is let through.
func RateLimit(l ratelimit.Limiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		d, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
