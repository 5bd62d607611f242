package proposals

import (
	"context"
	"fmt"

	"lead_automation_backend/internal/email"
	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"
)

// ArtifactWriter persists the proposal document.
type ArtifactWriter interface {
	Write(ctx context.Context, a outbox.Artifact) (outbox.Handle, error)
}

// LeadStore is the slice of the lead store the manual route needs.
type LeadStore interface {
	repository.LeadReader
	repository.LeadMutator
}

// Notifier writes the notification line of a transition before it is
// committed.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

// Sent is the outcome of drafting and sending one proposal.
type Sent struct {
	Proposal       Proposal      `json:"proposal"`
	ProposalHandle outbox.Handle `json:"proposalArtifact"`
	EmailHandle    outbox.Handle `json:"emailArtifact"`
}

// Service drafts proposals and writes the document plus its email.
type Service struct {
	generator *Generator
	writer    ArtifactWriter
	mailer    email.Sender
	leads     LeadStore
	notes     Notifier
	eventBus  events.Bus
	log       *logger.Logger
}

// NewService wires the proposal workflow.
func NewService(generator *Generator, writer ArtifactWriter, mailer email.Sender, leads LeadStore, notes Notifier, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		generator: generator,
		writer:    writer,
		mailer:    mailer,
		leads:     leads,
		notes:     notes,
		eventBus:  eventBus,
		log:       log,
	}
}

// Generator exposes the backend selection for settings.
func (s *Service) Generator() *Generator { return s.generator }

// Send drafts a proposal for lead and writes the document and the email that
// attaches it. It does not touch the lead; callers commit the status change.
func (s *Service) Send(ctx context.Context, lead repository.Lead) (Sent, error) {
	proposal, err := s.generator.Generate(ctx, BriefFrom(lead))
	if err != nil {
		return Sent{}, err
	}

	label := lead.Company
	if label == "" {
		label = "proposal"
	}
	doc, err := s.writer.Write(ctx, outbox.Artifact{
		Kind:        outbox.KindProposal,
		LeadID:      lead.ID,
		Label:       label,
		Ext:         "md",
		ContentType: "text/markdown",
		Body:        []byte(proposal.Content),
		CreatedAt:   proposal.GeneratedAt,
	})
	if err != nil {
		return Sent{}, err
	}

	mail, err := s.mailer.SendProposalEmail(ctx, RecipientFrom(lead), email.Attachment{
		FileName: doc.Name,
		Content:  []byte(proposal.Content),
	}, proposal.Degraded)
	if err != nil {
		s.log.Warn("proposal document written without its email", "leadId", lead.ID, "artifact", doc.Name, "error", err)
		return Sent{}, err
	}

	return Sent{Proposal: proposal, ProposalHandle: doc, EmailHandle: mail}, nil
}

// SendManual drafts a proposal on demand for a lead whose call completed.
// The reference is recorded on the lead; the status only advances when the
// lead is in CallCompleted.
func (s *Service) SendManual(ctx context.Context, id string) (Sent, repository.Lead, error) {
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return Sent{}, repository.Lead{}, err
	}
	if lead.Status != domain.StatusCallCompleted && !domain.Reachable(domain.StatusCallCompleted, lead.Status) {
		err := fmt.Errorf("%w: no completed call for lead %s (status %s)", domain.ErrInvalidTransition, lead.ID, lead.Status)
		return Sent{}, repository.Lead{}, apperr.Wrap(apperr.KindConflict, err.Error(), err)
	}

	sent, err := s.Send(ctx, lead)
	if err != nil {
		return Sent{}, repository.Lead{}, err
	}

	event := events.ProposalSent{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		Backend:        string(sent.Proposal.Backend),
		Degraded:       sent.Proposal.Degraded,
		FallbackReason: sent.Proposal.FallbackReason,
		Document:       sent.ProposalHandle.Name,
		Email:          sent.EmailHandle.Name,
	}
	if s.notes != nil {
		if err := s.notes.Notify(ctx, event); err != nil {
			return Sent{}, repository.Lead{}, err
		}
	}

	from := lead.Status
	updated, err := s.leads.Apply(ctx, lead.ID, from, func(l *repository.Lead) error {
		l.ProposalRef = sent.ProposalHandle.Name
		if l.Status == domain.StatusCallCompleted {
			l.Status = domain.StatusProposalSent
		}
		return nil
	})
	if err != nil {
		return Sent{}, repository.Lead{}, err
	}
	if updated.Status != from {
		s.log.LeadTransition(updated.ID, string(from), string(updated.Status), "manual proposal")
	}

	s.publish(ctx, event)
	return sent, updated, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.Error("event handler failed", "event", event.EventName(), "error", err)
	}
}

// BriefFrom extracts the fields a backend drafts from.
func BriefFrom(lead repository.Lead) LeadBrief {
	return LeadBrief{
		LeadID:     lead.ID,
		Name:       lead.Name,
		Email:      lead.Email,
		Company:    lead.Company,
		UseCase:    lead.UseCase,
		Budget:     lead.Budget,
		Transcript: lead.CallTranscript,
	}
}

// RecipientFrom addresses an email to lead.
func RecipientFrom(lead repository.Lead) email.Recipient {
	return email.Recipient{
		LeadID:  lead.ID,
		Name:    lead.Name,
		Email:   lead.Email,
		Company: lead.Company,
		UseCase: lead.UseCase,
	}
}

func (s Sent) String() string {
	return fmt.Sprintf("%s via %s (degraded=%t)", s.ProposalHandle.Name, s.Proposal.Backend, s.Proposal.Degraded)
}
