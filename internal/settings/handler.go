package settings

import (
	"net/http"

	"lead_automation_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Get returns the current settings.
// GET /api/v1/settings
func (h *Handler) Get(c *gin.Context) {
	httpkit.OK(c, h.svc.Get())
}

// Update changes the threshold and/or proposal backend.
// PUT /api/v1/settings
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, updated)
}
