package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookadmin/internal/pkg/response"
)

// RequestLogger logs each request with its outcome and recovers panics into
// a JSON 500 instead of dropping the connection.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("panic recovered",
					zap.Any("panic", recovered),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				c.Abort()
				return
			}

			fields := []zap.Field{
				zap.Int("status", c.Writer.Status()),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Duration("latency", time.Since(start)),
			}
			if orgID := c.GetInt64("organization_id"); orgID > 0 {
				fields = append(fields, zap.Int64("organization_id", orgID))
			}
			for _, err := range c.Errors {
				fields = append(fields, zap.String("error", err.Error()))
			}

			switch {
			case c.Writer.Status() >= http.StatusInternalServerError:
				logger.Error("request failed", fields...)
			case c.Writer.Status() >= http.StatusBadRequest:
				logger.Warn("request rejected", fields...)
			default:
				logger.Info("request", fields...)
			}
		}()

		c.Next()
	}
}
