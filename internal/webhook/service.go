package webhook

import (
	"context"
	"errors"
	"fmt"

	"lead_automation_backend/internal/email"
	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/proposals"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"
)

// MaxTranscriptRunes bounds the stored call transcript.
const MaxTranscriptRunes = 15000

// LeadStore is the slice of the lead store the processor needs.
type LeadStore interface {
	repository.LeadReader
	repository.LeadMutator
}

// ProposalSender drafts and writes a proposal for a lead.
type ProposalSender interface {
	Send(ctx context.Context, lead repository.Lead) (proposals.Sent, error)
}

// Notifier writes the notification line of a transition before it is
// committed.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

// Processor applies call events to leads. Every artifact and the
// notification line are written before the status change is committed, so a
// failed write leaves the lead as it was.
type Processor struct {
	leads     LeadStore
	mailer    email.Sender
	proposals ProposalSender
	notes     Notifier
	intent    IntentDetector
	eventBus  events.Bus
	log       *logger.Logger
}

// NewProcessor creates the webhook event processor.
func NewProcessor(leads LeadStore, mailer email.Sender, proposalSender ProposalSender, notes Notifier, intent IntentDetector, eventBus events.Bus, log *logger.Logger) *Processor {
	if intent == nil {
		intent = NewPhraseDetector()
	}
	return &Processor{
		leads:     leads,
		mailer:    mailer,
		proposals: proposalSender,
		notes:     notes,
		intent:    intent,
		eventBus:  eventBus,
		log:       log,
	}
}

// Process validates ev and moves the lead out of its requested call.
func (p *Processor) Process(ctx context.Context, ev CallEvent) (Outcome, error) {
	kind, err := ParseEventKind(ev.Kind)
	if err != nil {
		return Outcome{}, err
	}

	lead, err := p.leads.Get(ctx, ev.LeadID)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return Outcome{}, unknownEvent(fmt.Sprintf("no lead %q for event %s", ev.LeadID, kind))
	}
	if err != nil {
		return Outcome{}, err
	}

	expected, err := awaitingCall(lead)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	if kind.IsNoAnswer() {
		out, err = p.noAnswer(ctx, lead, expected)
	} else {
		out, err = p.completed(ctx, lead, expected, ev.Transcript)
	}
	if err != nil {
		return Outcome{}, err
	}
	out.Kind = kind
	return out, nil
}

// awaitingCall returns the status an event may move the lead from. A
// Qualified lead with a recorded call request passes through CallRequested
// in the same commit.
func awaitingCall(lead repository.Lead) (domain.Status, error) {
	switch lead.Status {
	case domain.StatusCallRequested:
		return lead.Status, nil
	case domain.StatusQualified:
		if lead.HasCallRequest() {
			return lead.Status, nil
		}
	case domain.StatusNew, domain.StatusUnqualified:
	default:
		err := fmt.Errorf("%w: lead %s is already %s", domain.ErrInvalidTransition, lead.ID, lead.Status)
		return "", apperr.Wrap(apperr.KindConflict, err.Error(), err)
	}
	return "", unknownEvent(fmt.Sprintf("no call was requested for lead %s (status %s)", lead.ID, lead.Status))
}

func (p *Processor) noAnswer(ctx context.Context, lead repository.Lead, expected domain.Status) (Outcome, error) {
	mail, err := p.mailer.SendFollowUpEmail(ctx, proposals.RecipientFrom(lead))
	if err != nil {
		return Outcome{}, err
	}

	unanswered := events.CallUnanswered{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		FollowUpEmail: mail.Name,
	}
	if err := p.notify(ctx, unanswered); err != nil {
		return Outcome{}, err
	}

	updated, err := p.leads.Apply(ctx, lead.ID, expected, func(l *repository.Lead) error {
		l.Status = domain.StatusNoAnswer
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	p.log.LeadTransition(updated.ID, string(expected), string(updated.Status), "call not answered")

	p.publish(ctx, unanswered)
	return Outcome{Lead: updated, FollowUpEmail: &mail}, nil
}

func (p *Processor) completed(ctx context.Context, lead repository.Lead, expected domain.Status, transcript string) (Outcome, error) {
	transcript = truncateRunes(transcript, MaxTranscriptRunes)
	intent := p.intent.DetectIntent(transcript)

	if !intent.ProposalRequested {
		declined := events.NoProposalRequested{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID}
		if err := p.notify(ctx, declined); err != nil {
			return Outcome{}, err
		}
		updated, err := p.leads.Apply(ctx, lead.ID, expected, func(l *repository.Lead) error {
			l.CallTranscript = transcript
			l.Status = domain.StatusNoProposalRequested
			return nil
		})
		if err != nil {
			return Outcome{}, err
		}
		p.log.LeadTransition(updated.ID, string(expected), string(updated.Status), "call completed without proposal intent")

		p.publish(ctx, events.CallCompleted{BaseEvent: events.NewBaseEvent(), LeadID: updated.ID})
		p.publish(ctx, declined)
		return Outcome{Lead: updated}, nil
	}

	staged := lead
	staged.CallTranscript = transcript
	sent, err := p.proposals.Send(ctx, staged)
	if err != nil {
		return Outcome{}, err
	}
	proposed := events.ProposalSent{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		Backend:        string(sent.Proposal.Backend),
		Degraded:       sent.Proposal.Degraded,
		FallbackReason: sent.Proposal.FallbackReason,
		Document:       sent.ProposalHandle.Name,
		Email:          sent.EmailHandle.Name,
	}
	if err := p.notify(ctx, proposed); err != nil {
		return Outcome{}, err
	}

	updated, err := p.leads.Apply(ctx, lead.ID, expected, func(l *repository.Lead) error {
		l.CallTranscript = transcript
		l.ProposalRef = sent.ProposalHandle.Name
		l.Status = domain.StatusProposalSent
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	p.log.LeadTransition(updated.ID, string(expected), string(updated.Status), "proposal requested: "+intent.Phrase)

	p.publish(ctx, events.CallCompleted{BaseEvent: events.NewBaseEvent(), LeadID: updated.ID, ProposalRequested: true})
	p.publish(ctx, proposed)
	return Outcome{Lead: updated, ProposalRequested: true, Proposal: &sent}, nil
}

func (p *Processor) notify(ctx context.Context, event events.Event) error {
	if p.notes == nil {
		return nil
	}
	return p.notes.Notify(ctx, event)
}

func (p *Processor) publish(ctx context.Context, event events.Event) {
	if p.eventBus == nil {
		return
	}
	if err := p.eventBus.PublishSync(ctx, event); err != nil {
		p.log.Error("event handler failed", "event", event.EventName(), "error", err)
	}
}

func truncateRunes(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
