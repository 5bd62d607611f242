package transport

import (
	"time"
)

// Request DTOs
type CreateLeadRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=200"`
	Email   string  `json:"email" validate:"required,email,max=254"`
	Company string  `json:"company" validate:"max=200"`
	UseCase string  `json:"useCase" validate:"max=2000"`
	Budget  float64 `json:"budget" validate:"gte=0"`
	Phone   string  `json:"phone" validate:"omitempty,max=32"`
}

type QualifyRequest struct {
	All bool `json:"all"`
}

// Response DTOs
type LeadResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Company        string    `json:"company"`
	UseCase        string    `json:"useCase"`
	Budget         float64   `json:"budget"`
	Phone          string    `json:"phone,omitempty"`
	Status         string    `json:"status"`
	CallTranscript string    `json:"callTranscript,omitempty"`
	CallRequestID  string    `json:"callRequestId,omitempty"`
	ProposalRef    string    `json:"proposalRef,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastActionAt   time.Time `json:"lastActionAt"`
}

type AddLeadResponse struct {
	Lead    LeadResponse `json:"lead"`
	Created bool         `json:"created"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

// RowError reports one rejected CSV data row. Row is 1-based over data rows;
// Line is the physical line in the file.
type RowError struct {
	Row    int    `json:"row"`
	Line   int    `json:"line"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a CSV import. Added counts every accepted row;
// Updated is the subset that replaced an existing lead.
type ImportResult struct {
	Added    int        `json:"added"`
	Updated  int        `json:"updated"`
	Rejected []RowError `json:"rejected"`
}

type QualificationResponse struct {
	Lead             LeadResponse `json:"lead"`
	Qualified        bool         `json:"qualified"`
	Threshold        float64      `json:"threshold"`
	AlreadyQualified bool         `json:"alreadyQualified"`
	CallRequest      string       `json:"callRequestArtifact,omitempty"`
}

type QualifyAllResponse struct {
	Results []QualificationResponse `json:"results"`
	Errors  []QualifyFailure        `json:"errors"`
}

type QualifyFailure struct {
	LeadID string `json:"leadId"`
	Error  string `json:"error"`
}

type DispatchCallResponse struct {
	Lead        LeadResponse `json:"lead"`
	Dispatched  bool         `json:"dispatched"`
	CallRequest string       `json:"callRequestId"`
}
