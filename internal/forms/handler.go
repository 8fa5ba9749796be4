package forms

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ascend-backend/internal/notify"
	"ascend-backend/internal/shared/server/middleware"
	"ascend-backend/internal/shared/server/respond"
)

const maxFormSize = 2 << 20

// Handler wires the quote and colour routes.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the form routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/submit-quote", h.quote)
	rg.POST("/submit-colour", h.colour)
}

func (h *Handler) quote(c *gin.Context) {
	c.Set(middleware.FormKey, "quote")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	h.Svc.SubmitQuote(c.Request.Context(), req)
	respond.OK(c, gin.H{"success": true, "message": "Quote request received successfully!"})
}

func (h *Handler) colour(c *gin.Context) {
	c.Set(middleware.FormKey, "colour")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)

	var req ColourConfirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	res, err := h.Svc.SubmitColour(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidSubmission):
		respond.Fail(c, http.StatusBadRequest, "Missing required fields", nil)
		return
	case err != nil:
		respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", nil)
		return
	}

	if res.EmailError != nil {
		var derr *notify.DeliveryError
		if errors.As(res.EmailError, &derr) {
			respond.Fail(c, http.StatusBadRequest, "", derr)
			return
		}
		respond.Fail(c, http.StatusBadRequest, "", gin.H{"message": res.EmailError.Error()})
		return
	}
	if res.Simulated {
		respond.OK(c, gin.H{"success": true, "message": "Colour confirmation submitted (Simulation)"})
		return
	}
	respond.OK(c, gin.H{"success": true, "data": res.Receipt})
}
