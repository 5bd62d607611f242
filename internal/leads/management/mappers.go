package management

import (
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/leads/transport"
)

// ToLeadResponse maps a stored lead to its API shape.
func ToLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:             lead.ID,
		Name:           lead.Name,
		Email:          lead.Email,
		Company:        lead.Company,
		UseCase:        lead.UseCase,
		Budget:         lead.Budget,
		Phone:          lead.Phone,
		Status:         string(lead.Status),
		CallTranscript: lead.CallTranscript,
		CallRequestID:  lead.CallRequestID,
		ProposalRef:    lead.ProposalRef,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
		LastActionAt:   lead.LastActionAt,
	}
}
