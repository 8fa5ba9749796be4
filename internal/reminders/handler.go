package reminders

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/shared/server/respond"
)

// Handler exposes the job to the scheduler.
type Handler struct {
	Job          *Job
	ExposeErrors bool
}

// RegisterRoutes attaches the cron route. Callers put CronAuth on rg.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.GET("/cron/check-expiring-insurance", h.run)
	rg.POST("/cron/check-expiring-insurance", h.run)
}

type runResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	EmailsSent int    `json:"emailsSent"`
	Details    []Sent `json:"details"`
}

func (h *Handler) run(c *gin.Context) {
	report, err := h.Job.Run(c.Request.Context())
	if err != nil {
		var detail any
		if h.ExposeErrors {
			detail = err.Error()
		}
		respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", detail)
		return
	}
	respond.OK(c, toRunResponse(report))
}

func toRunResponse(r Report) runResponse {
	resp := runResponse{Success: true, EmailsSent: r.EmailsSent(), Details: r.Details}
	if resp.Details == nil {
		resp.Details = []Sent{}
	}
	switch {
	case !r.StoreConfigured:
		resp.Message = "Database not configured"
	case r.DocumentsFound == 0:
		resp.Message = "No expiring insurance"
	default:
		resp.Message = fmt.Sprintf("Processed %d expiring insurance documents", r.DocumentsFound)
	}
	return resp
}
