// Package qualification decides whether a lead is worth a call and
// dispatches the call request.
package qualification

import (
	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/internal/leads/repository"
)

// DefaultThreshold is the minimum budget of a qualified lead.
const DefaultThreshold = 5000.0

// Result is the verdict for one lead.
type Result struct {
	Qualified bool    `json:"qualified"`
	Budget    float64 `json:"budget"`
	Threshold float64 `json:"threshold"`
}

// Qualify compares the budget against threshold, inclusive.
func Qualify(lead repository.Lead, threshold float64) Result {
	return Result{
		Qualified: lead.Budget >= threshold,
		Budget:    lead.Budget,
		Threshold: threshold,
	}
}

// Target returns the status a New lead moves to for r.
func (r Result) Target() domain.Status {
	if r.Qualified {
		return domain.StatusQualified
	}
	return domain.StatusUnqualified
}
