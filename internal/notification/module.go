// Package notification turns domain events into lines of the notification
// stream. Status transitions call Notify before they commit, so a line that
// cannot be written aborts the transition. Events that change no status reach
// the stream through the bus.
package notification

import (
	"context"
	"fmt"

	"lead_automation_backend/internal/events"
	"lead_automation_backend/platform/logger"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stream appends one line per notification.
type Stream interface {
	AppendNotification(ctx context.Context, leadID, message string) error
}

// Module is the notification event handler.
type Module struct {
	stream  Stream
	printer *message.Printer
	log     *logger.Logger
}

// New creates the notification module writing to stream.
func New(stream Stream, log *logger.Logger) *Module {
	return &Module{
		stream:  stream,
		printer: message.NewPrinter(language.English),
		log:     log,
	}
}

// RegisterHandlers subscribes the module to the events that change no lead
// status. Transition lines are written through Notify instead.
func (m *Module) RegisterHandlers(bus events.Bus) {
	// Lead events
	bus.Subscribe(events.LeadAdded{}.EventName(), m)
	bus.Subscribe(events.LeadsImported{}.EventName(), m)

	// Settings
	bus.Subscribe(events.SettingsUpdated{}.EventName(), m)
}

// Handle routes events to the appropriate handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	leadID, line, ok := m.format(event)
	if !ok {
		m.log.Warn("notification: unhandled event", "event", event.EventName())
		return nil
	}
	return m.stream.AppendNotification(ctx, leadID, line)
}

// Notify writes the line for a transition that is about to be committed.
// The stream error is returned unchanged so the caller can abort.
func (m *Module) Notify(ctx context.Context, event events.Event) error {
	leadID, line, ok := m.format(event)
	if !ok {
		return fmt.Errorf("notification: no line for event %s", event.EventName())
	}
	return m.stream.AppendNotification(ctx, leadID, line)
}

func (m *Module) format(event events.Event) (string, string, bool) {
	switch e := event.(type) {
	case events.LeadAdded:
		if e.Created {
			return e.LeadID, "Lead added: " + e.Name, true
		}
		return e.LeadID, "Lead updated: " + e.Name, true
	case events.LeadsImported:
		return "", m.printer.Sprintf("Imported leads: %d added, %d updated, %d rejected", e.Imported, e.Updated, e.Rejected), true
	case events.LeadQualified:
		return e.LeadID, m.printer.Sprintf("Lead qualified budget %.0f", e.Budget), true
	case events.LeadDisqualified:
		return e.LeadID, m.printer.Sprintf("Lead unqualified budget %.0f below threshold %.0f", e.Budget, e.Threshold), true
	case events.CallDispatched:
		return e.LeadID, "Call requested: " + e.CallRequestID, true
	case events.CallUnanswered:
		return e.LeadID, "No answer, follow-up email " + e.FollowUpEmail, true
	case events.ProposalSent:
		line := "Proposal sent via " + e.Backend + ": " + e.Document
		if e.Degraded {
			line += " (fallback: " + e.FallbackReason + ")"
		}
		return e.LeadID, line, true
	case events.NoProposalRequested:
		return e.LeadID, "call completed, no proposal requested", true
	case events.SettingsUpdated:
		return "", m.printer.Sprintf("Settings updated: threshold %.0f, proposal backend %s", e.QualificationThreshold, e.ProposalBackend), true
	default:
		return "", "", false
	}
}

var _ events.Handler = (*Module)(nil)
