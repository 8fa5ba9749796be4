package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/forms"
	"ascend-backend/internal/reminders"
	"ascend-backend/internal/shared/config"
	"ascend-backend/internal/shared/metrics"
	"ascend-backend/internal/shared/server/middleware"
	"ascend-backend/internal/shared/server/respond"
	"ascend-backend/internal/subcontractors"
)

const (
	formsGroup  = "FORMS"
	intakeGroup = "INTAKE"
)

// Public form limits per client IP. The pack carries three certificates and
// several model calls, so it gets a tighter bucket.
var formRules = map[string]middleware.RateLimitRule{
	formsGroup:  {Rate: 0.2, Burst: 5},
	intakeGroup: {Rate: 0.1, Burst: 10},
}

// RouterDeps carries the handlers the router mounts. A nil handler leaves its
// routes unregistered.
type RouterDeps struct {
	Config           config.Config
	DB               *sql.DB
	IntakeHandler    *subcontractors.Handler
	FormsHandler     *forms.Handler
	RemindersHandler *reminders.Handler
	Limiter          *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(respond.MethodNotAllowed)
	r.NoRoute(func(c *gin.Context) {
		respond.Fail(c, http.StatusNotFound, "Not Found", nil)
	})

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(!deps.Config.IsProduction()),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", healthHandler(deps.DB))

	public := api.Group("", middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        formRules,
		DefaultGroup: formsGroup,
		Limiter:      deps.Limiter,
		GroupFor: func(c *gin.Context) string {
			if c.FullPath() == "/api/submit-subby-pack" {
				return intakeGroup
			}
			return formsGroup
		},
	}))
	if deps.FormsHandler != nil {
		deps.FormsHandler.RegisterRoutes(public)
	}
	if deps.IntakeHandler != nil {
		deps.IntakeHandler.RegisterRoutes(public)
	}

	if deps.RemindersHandler != nil {
		cron := api.Group("", middleware.CronAuth(deps.Config.CronSecret))
		deps.RemindersHandler.RegisterRoutes(cron)
	}

	return r
}

func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "disabled"
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			status = "up"
			if err := db.PingContext(ctx); err != nil {
				status = "down"
			}
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "database": status})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
