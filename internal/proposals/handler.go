package proposals

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

// RegisterRoutes mounts the manual proposal route on the leads group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, gate gin.HandlerFunc) {
	rg.POST("/:id/proposal", gate, h.Send)
}

func (h *Handler) Send(c *gin.Context) {
	sent, lead, err := h.svc.SendManual(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, gin.H{
		"lead":             lead,
		"proposal":         sent.Proposal,
		"proposalArtifact": sent.ProposalHandle,
		"emailArtifact":    sent.EmailHandle,
	})
}
