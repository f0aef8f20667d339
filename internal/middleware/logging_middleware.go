package middleware

import (
	"time"

	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoggingMiddleware tags each request with an id and logs its outcome
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		fields := map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.String(),
			"client_ip":  c.ClientIP(),
		}

		if status := c.Writer.Status(); status >= 500 {
			logger.Error("Request failed", nil, fields)
		} else if status >= 400 {
			logger.Warn("Request rejected", fields)
		} else {
			logger.Info("Request completed", fields)
		}
	}
}
