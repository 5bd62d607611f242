// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"lead_automation_backend/platform/events"
	"lead_automation_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// InMemoryBus is the process-local bus used by every binary.
type InMemoryBus = events.InMemoryBus

// NewInMemoryBus creates the bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Management Events
// =============================================================================

// LeadAdded is published when a lead is created or upserted through the API.
type LeadAdded struct {
	BaseEvent
	LeadID  string `json:"leadId"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

func (e LeadAdded) EventName() string { return "leads.lead.added" }

// LeadsImported is published once per CSV import.
type LeadsImported struct {
	BaseEvent
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Rejected int `json:"rejected"`
}

func (e LeadsImported) EventName() string { return "leads.import.completed" }

// =============================================================================
// Qualification Events
// =============================================================================

// LeadQualified is published when a lead's budget meets the threshold.
type LeadQualified struct {
	BaseEvent
	LeadID    string  `json:"leadId"`
	Budget    float64 `json:"budget"`
	Threshold float64 `json:"threshold"`
}

func (e LeadQualified) EventName() string { return "qualification.lead.qualified" }

// LeadDisqualified is published when a lead's budget is below the threshold.
type LeadDisqualified struct {
	BaseEvent
	LeadID    string  `json:"leadId"`
	Budget    float64 `json:"budget"`
	Threshold float64 `json:"threshold"`
}

func (e LeadDisqualified) EventName() string { return "qualification.lead.disqualified" }

// CallDispatched is published when a call request is written and when the
// call is placed. Artifact is empty if the request already existed.
type CallDispatched struct {
	BaseEvent
	LeadID        string `json:"leadId"`
	CallRequestID string `json:"callRequestId"`
	Artifact      string `json:"artifact"`
}

func (e CallDispatched) EventName() string { return "qualification.call.dispatched" }

// =============================================================================
// Call Outcome Events
// =============================================================================

// CallUnanswered is published when the provider reports no answer.
type CallUnanswered struct {
	BaseEvent
	LeadID        string `json:"leadId"`
	FollowUpEmail string `json:"followUpEmail"`
}

func (e CallUnanswered) EventName() string { return "calls.call.unanswered" }

// CallCompleted is published when a completed call is recorded, before any
// proposal decision.
type CallCompleted struct {
	BaseEvent
	LeadID            string `json:"leadId"`
	ProposalRequested bool   `json:"proposalRequested"`
}

func (e CallCompleted) EventName() string { return "calls.call.completed" }

// =============================================================================
// Proposal Events
// =============================================================================

// ProposalSent is published after the proposal document and email are written.
type ProposalSent struct {
	BaseEvent
	LeadID         string `json:"leadId"`
	Backend        string `json:"backend"`
	Degraded       bool   `json:"degraded"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	Document       string `json:"document"`
	Email          string `json:"email"`
}

func (e ProposalSent) EventName() string { return "proposals.proposal.sent" }

// NoProposalRequested is published when a completed call did not ask for one.
type NoProposalRequested struct {
	BaseEvent
	LeadID string `json:"leadId"`
}

func (e NoProposalRequested) EventName() string { return "proposals.proposal.not_requested" }

// =============================================================================
// Settings Events
// =============================================================================

// SettingsUpdated is published when runtime settings change.
type SettingsUpdated struct {
	BaseEvent
	QualificationThreshold float64 `json:"qualificationThreshold"`
	ProposalBackend        string  `json:"proposalBackend"`
}

func (e SettingsUpdated) EventName() string { return "settings.updated" }
