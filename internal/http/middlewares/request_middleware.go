package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(CtxRequestID, id)

		c.Next()
	}
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path // fallback (e.g. 404)
		}

		method := c.Request.Method

		c.Next()

		attrs := []any{
			"method", method,
			"route", route,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(CtxRequestID),
		}
		if model := c.Param("model"); model != "" {
			attrs = append(attrs, "model", model)
		}
		if u, ok := UserFromContext(c); ok {
			attrs = append(attrs, "username", u.Username)
		}

		log.InfoContext(c.Request.Context(), "http_request", attrs...)
	}
}
