package qualification

import (
	"encoding/json"
	"time"

	"lead_automation_backend/internal/leads/repository"
)

// CallConfig provides the provider-facing fields of a call request.
type CallConfig interface {
	GetCallAssistantID() string
	GetCallWebhookURL() string
	GetCallSynthesisPrompt() string
}

// CallRequest is the document handed to the (simulated) voice provider.
type CallRequest struct {
	ID          string          `json:"id"`
	LeadID      string          `json:"leadId"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Company     string          `json:"company"`
	UseCase     string          `json:"useCase"`
	Budget      float64         `json:"budget"`
	Phone       string          `json:"phone,omitempty"`
	RequestedAt time.Time       `json:"requestedAt"`
	AssistantID string          `json:"assistantId"`
	WebhookURL  string          `json:"webhookUrl"`
	Synthesis   CallSynthesis   `json:"synthesis"`
	Metadata    CallRequestMeta `json:"metadata"`
}

type CallSynthesis struct {
	Prompt string `json:"prompt"`
}

// CallRequestMeta is echoed back by the provider on every webhook event.
type CallRequestMeta struct {
	LeadID string `json:"leadId"`
}

func newCallRequest(id string, lead repository.Lead, cfg CallConfig, at time.Time) CallRequest {
	return CallRequest{
		ID:          id,
		LeadID:      lead.ID,
		Name:        lead.Name,
		Email:       lead.Email,
		Company:     lead.Company,
		UseCase:     lead.UseCase,
		Budget:      lead.Budget,
		Phone:       lead.Phone,
		RequestedAt: at,
		AssistantID: cfg.GetCallAssistantID(),
		WebhookURL:  cfg.GetCallWebhookURL(),
		Synthesis:   CallSynthesis{Prompt: cfg.GetCallSynthesisPrompt()},
		Metadata:    CallRequestMeta{LeadID: lead.ID},
	}
}

func (c CallRequest) encode() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
