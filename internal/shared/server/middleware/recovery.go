package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/shared/server/respond"
	"ascend-backend/internal/shared/telemetry"
)

// Recovery turns panics into a 500 JSON body. The panic value is echoed to the
// client only when exposeDetail is set; the stack is logged, never returned.
func Recovery(exposeDetail bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("panic", map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				var detail any
				if exposeDetail {
					detail = fmt.Sprint(rec)
				}
				respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", detail)
			}
		}()
		c.Next()
	}
}
