package webhook

import (
	"errors"
	"fmt"
	"strings"

	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/internal/proposals"
	"lead_automation_backend/platform/apperr"
)

// EventKind is the call provider event vocabulary.
type EventKind string

const (
	EventNoAnswer            EventKind = "call.no_answer"
	EventUnanswered          EventKind = "call.unanswered"
	EventCompleted           EventKind = "call.completed"
	EventTranscriptFinalized EventKind = "call.transcript_finalized"
	EventSummary             EventKind = "call.summary"
)

// ErrUnknownEvent marks an event that cannot be tied to a requested call.
var ErrUnknownEvent = errors.New("unknown call event")

// EventKinds returns every accepted kind.
func EventKinds() []EventKind {
	return []EventKind{EventCompleted, EventTranscriptFinalized, EventSummary, EventNoAnswer, EventUnanswered}
}

// ParseEventKind accepts a kind case-insensitively.
func ParseEventKind(raw string) (EventKind, error) {
	k := EventKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range EventKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", unknownEvent(fmt.Sprintf("unknown event kind %q", raw))
}

// IsNoAnswer reports whether the call was never picked up.
func (k EventKind) IsNoAnswer() bool {
	return k == EventNoAnswer || k == EventUnanswered
}

// CallEvent is a normalized webhook delivery.
type CallEvent struct {
	LeadID     string
	Kind       string
	Transcript string
}

// Outcome describes what processing an event did.
type Outcome struct {
	Lead              repository.Lead
	Kind              EventKind
	FollowUpEmail     *outbox.Handle
	ProposalRequested bool
	Proposal          *proposals.Sent
}

func unknownEvent(message string) error {
	return apperr.Wrap(apperr.KindUnprocessable, message, ErrUnknownEvent)
}
