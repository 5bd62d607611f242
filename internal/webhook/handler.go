package webhook

import (
	"io"
	"net/http"

	"lead_automation_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid request body"

	maxEventBytes = 1 << 20
)

// EventResponse is returned after an event was applied.
type EventResponse struct {
	LeadID            string            `json:"leadId"`
	EventKind         string            `json:"eventKind"`
	Status            string            `json:"status"`
	ProposalRequested bool              `json:"proposalRequested"`
	FollowUpEmail     string            `json:"followUpEmail,omitempty"`
	Proposal          *ProposalResponse `json:"proposal,omitempty"`
}

// ProposalResponse summarizes the proposal written for the lead.
type ProposalResponse struct {
	Backend        string `json:"backend"`
	Degraded       bool   `json:"degraded"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	Document       string `json:"document"`
	Email          string `json:"email"`
}

// Handler handles webhook HTTP requests.
type Handler struct {
	processor *Processor
}

// NewHandler creates a new webhook handler.
func NewHandler(processor *Processor) *Handler {
	return &Handler{processor: processor}
}

// HandleCallEvent applies a simulated call provider event.
// POST /api/v1/webhook/calls
func (h *Handler) HandleCallEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	ev, err := ExtractEvent(body)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}

	out, err := h.processor.Process(c.Request.Context(), ev)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toEventResponse(out))
}

func toEventResponse(out Outcome) EventResponse {
	resp := EventResponse{
		LeadID:            out.Lead.ID,
		EventKind:         string(out.Kind),
		Status:            string(out.Lead.Status),
		ProposalRequested: out.ProposalRequested,
	}
	if out.FollowUpEmail != nil {
		resp.FollowUpEmail = out.FollowUpEmail.Name
	}
	if out.Proposal != nil {
		resp.Proposal = &ProposalResponse{
			Backend:        string(out.Proposal.Proposal.Backend),
			Degraded:       out.Proposal.Proposal.Degraded,
			FallbackReason: out.Proposal.Proposal.FallbackReason,
			Document:       out.Proposal.ProposalHandle.Name,
			Email:          out.Proposal.EmailHandle.Name,
		}
	}
	return resp
}
