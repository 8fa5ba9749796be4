package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/shared/telemetry"
)

// CronAuth guards scheduler-only routes with a shared bearer secret. An empty
// secret rejects every request rather than leaving the route open.
func CronAuth(secret string) gin.HandlerFunc {
	expected := []byte("Bearer " + strings.TrimSpace(secret))
	return func(c *gin.Context) {
		got := []byte(strings.TrimSpace(c.GetHeader("Authorization")))
		if strings.TrimSpace(secret) == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
			telemetry.Warn("cron.unauthorized", map[string]any{
				"path":       c.Request.URL.Path,
				"request_id": RequestIDFromContext(c),
				"client_ip":  c.ClientIP(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
