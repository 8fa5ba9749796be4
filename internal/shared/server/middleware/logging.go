package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/shared/telemetry"
)

// Context keys handlers may set so the request log carries domain fields.
const (
	FormKey            = "form"
	SubcontractorIDKey = "subcontractorId"
)

// Logging emits a structured log per request. Preflights are skipped.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if form := c.GetString(FormKey); form != "" {
			fields["form"] = form
		}
		if id := c.GetString(SubcontractorIDKey); id != "" {
			fields["subcontractor_id"] = id
		}
		telemetry.Info("request.complete", fields)
	}
}
