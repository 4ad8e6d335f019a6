package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries a per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger writes one access log line per request, tagged with the request ID.
func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		id, _ := p.Keys["request_id"].(string)
		line := fmt.Sprintf("[API] %s | %3d | %10v | %-7s %s",
			p.TimeStamp.Format(time.RFC3339),
			p.StatusCode,
			p.Latency.Round(time.Microsecond),
			p.Method,
			p.Path,
		)
		if id != "" {
			line += " | " + id
		}
		if p.ErrorMessage != "" {
			line += " | " + p.ErrorMessage
		}
		return line + "\n"
	})
}
