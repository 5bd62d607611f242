// Package proposals drafts sales proposals for leads. Two backends exist: a
// deterministic template and a generative model. The generator always falls
// back to the template when the model fails.
package proposals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lead_automation_backend/platform/apperr"
)

// BackendKind names a proposal backend.
type BackendKind string

const (
	BackendStatic     BackendKind = "static"
	BackendGenerative BackendKind = "generative"
)

// ParseBackendKind validates a configured backend name.
func ParseBackendKind(raw string) (BackendKind, error) {
	switch BackendKind(strings.ToLower(strings.TrimSpace(raw))) {
	case BackendStatic:
		return BackendStatic, nil
	case BackendGenerative:
		return BackendGenerative, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("unknown proposal backend %q", raw))
	}
}

var (
	// ErrBackendUnavailable marks a generative backend that could not produce
	// usable output.
	ErrBackendUnavailable = errors.New("proposal backend unavailable")
	// ErrGenerationTimeout marks a generative call that exceeded its deadline.
	ErrGenerationTimeout = errors.New("proposal generation timed out")
)

// LeadBrief is the lead data a backend drafts from.
type LeadBrief struct {
	LeadID     string
	Name       string
	Email      string
	Company    string
	UseCase    string
	Budget     float64
	Transcript string
}

// Backend produces proposal Markdown for a lead.
type Backend interface {
	Name() BackendKind
	Generate(ctx context.Context, brief LeadBrief) (string, error)
}

// Proposal is one generated document. Backend is the backend that actually
// produced Content.
type Proposal struct {
	LeadID         string      `json:"leadId"`
	Content        string      `json:"content"`
	Backend        BackendKind `json:"backend"`
	Degraded       bool        `json:"degraded"`
	FallbackReason string      `json:"fallbackReason,omitempty"`
	GeneratedAt    time.Time   `json:"generatedAt"`
}

func unavailable(cause error) error {
	return apperr.Wrap(apperr.KindUnavailable, "generative backend unavailable", fmt.Errorf("%w: %w", ErrBackendUnavailable, cause))
}

func timedOut(after time.Duration) error {
	return apperr.Wrap(apperr.KindUnavailable, "generative backend timed out", fmt.Errorf("%w after %s", ErrGenerationTimeout, after))
}
