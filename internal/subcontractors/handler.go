package subcontractors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/notify"
	"ascend-backend/internal/shared/server/middleware"
	"ascend-backend/internal/shared/server/respond"
)

// Three certificates as base64 data URIs plus form fields.
const maxPackSize = 30 << 20

// Handler wires the pack endpoint to the intake service.
type Handler struct {
	Svc          *IntakeService
	ExposeErrors bool
}

// NewHandler constructs a Handler. exposeErrors puts error text in 500 bodies.
func NewHandler(svc *IntakeService, exposeErrors bool) *Handler {
	return &Handler{Svc: svc, ExposeErrors: exposeErrors}
}

// RegisterRoutes attaches the pack route to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/submit-subby-pack", h.submit)
}

func (h *Handler) submit(c *gin.Context) {
	c.Set(middleware.FormKey, "subby-pack")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPackSize)

	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	out, err := h.Svc.Submit(c.Request.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			respond.Fail(c, http.StatusBadRequest, "Missing required fields", nil)
		case errors.Is(err, ErrMissingInsurance):
			respond.Fail(c, http.StatusBadRequest, "Public Liability and Workers Comp insurance are required", nil)
		default:
			var detail any
			if h.ExposeErrors {
				detail = err.Error()
			}
			respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", detail)
		}
		return
	}
	if out.SubcontractorID != "" {
		c.Set(middleware.SubcontractorIDKey, out.SubcontractorID)
	}

	if out.EmailError != nil {
		var derr *notify.DeliveryError
		if errors.As(out.EmailError, &derr) {
			respond.Fail(c, http.StatusBadRequest, "", derr)
			return
		}
		respond.Fail(c, http.StatusBadRequest, "", gin.H{"message": out.EmailError.Error()})
		return
	}

	respond.OK(c, toSubmitResponse(out))
}
