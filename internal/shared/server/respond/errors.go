package respond

import (
	"github.com/gin-gonic/gin"

	"ascend-backend/internal/shared/telemetry"
)

// FailureBody is the error envelope the site's front-end scripts read.
type FailureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// Fail logs and sends a failure response. detail may be nil, a string or a
// structured provider error.
func Fail(c *gin.Context, status int, message string, detail any) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if detail != nil {
		fields["detail"] = detail
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, FailureBody{
		Success: false,
		Message: message,
		Error:   detail,
	})
}
