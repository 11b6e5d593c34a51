package config

import (
	"context"
	"time"

	"leadflow-backend/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const slowRequestThreshold = 200 * time.Millisecond

func PerformanceLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		log.HTTPRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			float64(latency.Microseconds())/1000,
			c.ClientIP(),
		)

		if latency > slowRequestThreshold {
			log.Warn("slow_request",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"latency", latency.String())
		}
	}
}

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an ID, reusing the caller's header when
// present, so log lines from one request can be joined.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, id))
		c.Next()
	}
}
