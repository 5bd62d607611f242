package qualification

import (
	"context"
	"fmt"
	"time"

	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is what qualification needs from the lead store.
type Repository interface {
	repository.LeadReader
	repository.LeadMutator
}

// ArtifactWriter persists call requests.
type ArtifactWriter interface {
	Write(ctx context.Context, a outbox.Artifact) (outbox.Handle, error)
}

// ThresholdSource provides the current qualification threshold.
type ThresholdSource interface {
	QualificationThreshold() float64
}

// Notifier writes the notification line of a transition before it is
// committed.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

// Outcome is the result of qualifying one lead.
type Outcome struct {
	Lead             repository.Lead
	Result           Result
	AlreadyQualified bool
	CallRequest      *outbox.Handle
}

// Failure is a lead QualifyAll could not process.
type Failure struct {
	LeadID string
	Err    error
}

// Dispatch is the result of DispatchCall.
type Dispatch struct {
	Lead       repository.Lead
	Dispatched bool
}

// Service applies qualification decisions to stored leads.
type Service struct {
	repo      Repository
	writer    ArtifactWriter
	threshold ThresholdSource
	calls     CallConfig
	notes     Notifier
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates the qualification service.
func New(repo Repository, writer ArtifactWriter, threshold ThresholdSource, calls CallConfig, notes Notifier, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		writer:    writer,
		threshold: threshold,
		calls:     calls,
		notes:     notes,
		eventBus:  eventBus,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Qualify decides a New lead. A qualified lead gets its call request
// written before the status is committed. Leads past New, or that already
// have a call request, are returned unchanged with their current verdict.
func (s *Service) Qualify(ctx context.Context, id string) (Outcome, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}

	threshold := s.threshold.QualificationThreshold()
	if lead.Status != domain.StatusNew || lead.HasCallRequest() {
		return Outcome{
			Lead: lead,
			Result: Result{
				Qualified: domain.HasReachedQualified(lead.Status),
				Budget:    lead.Budget,
				Threshold: threshold,
			},
			AlreadyQualified: true,
		}, nil
	}

	result := Qualify(lead, threshold)
	if !result.Qualified {
		disqualified := events.LeadDisqualified{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Budget:    lead.Budget,
			Threshold: threshold,
		}
		if err := s.notify(ctx, disqualified); err != nil {
			return Outcome{}, err
		}
		updated, err := s.repo.Apply(ctx, lead.ID, domain.StatusNew, func(l *repository.Lead) error {
			l.Status = domain.StatusUnqualified
			return nil
		})
		if err != nil {
			return Outcome{}, err
		}
		s.log.LeadTransition(updated.ID, string(domain.StatusNew), string(updated.Status), "budget below threshold")
		s.publish(ctx, disqualified)
		return Outcome{Lead: updated, Result: result}, nil
	}

	callID := uuid.NewString()
	handle, err := s.writeCallRequest(ctx, callID, lead)
	if err != nil {
		return Outcome{}, err
	}
	qualified := events.LeadQualified{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Budget:    lead.Budget,
		Threshold: threshold,
	}
	if err := s.notify(ctx, qualified); err != nil {
		s.log.Warn("call request written for a lead whose qualification was not recorded", "leadId", lead.ID, "artifact", handle.Name, "error", err)
		return Outcome{}, err
	}

	updated, err := s.repo.Apply(ctx, lead.ID, domain.StatusNew, func(l *repository.Lead) error {
		l.Status = domain.StatusQualified
		l.CallRequestID = callID
		return nil
	})
	if err != nil {
		s.log.Warn("call request written for a lead that changed concurrently", "leadId", lead.ID, "artifact", handle.Name, "error", err)
		return Outcome{}, err
	}
	s.log.LeadTransition(updated.ID, string(domain.StatusNew), string(updated.Status), "budget meets threshold")
	s.publish(ctx, qualified)
	s.publish(ctx, events.CallDispatched{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        updated.ID,
		CallRequestID: callID,
		Artifact:      handle.Name,
	})
	return Outcome{Lead: updated, Result: result, CallRequest: &handle}, nil
}

// QualifyAll qualifies every New lead in insertion order. One failing lead
// does not stop the others.
func (s *Service) QualifyAll(ctx context.Context) ([]Outcome, []Failure, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	outcomes := make([]Outcome, 0)
	failures := make([]Failure, 0)
	for _, lead := range leads {
		if lead.Status != domain.StatusNew {
			continue
		}
		if err := ctx.Err(); err != nil {
			return outcomes, failures, err
		}
		outcome, err := s.Qualify(ctx, lead.ID)
		if err != nil {
			failures = append(failures, Failure{LeadID: lead.ID, Err: err})
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, failures, nil
}

// DispatchCall marks the call of a Qualified lead as placed. Repeating it
// on a CallRequested lead is a no-op.
func (s *Service) DispatchCall(ctx context.Context, id string) (Dispatch, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return Dispatch{}, err
	}

	switch lead.Status {
	case domain.StatusCallRequested:
		return Dispatch{Lead: lead}, nil
	case domain.StatusQualified:
	default:
		return Dispatch{}, apperr.Wrap(apperr.KindConflict,
			fmt.Sprintf("cannot dispatch a call for a lead in %s", lead.Status),
			fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, lead.Status, domain.StatusCallRequested))
	}

	callID := lead.CallRequestID
	var artifact string
	if !lead.HasCallRequest() {
		callID = uuid.NewString()
		handle, err := s.writeCallRequest(ctx, callID, lead)
		if err != nil {
			return Dispatch{}, err
		}
		artifact = handle.Name
	}

	dispatched := events.CallDispatched{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		CallRequestID: callID,
		Artifact:      artifact,
	}
	if err := s.notify(ctx, dispatched); err != nil {
		return Dispatch{}, err
	}

	updated, err := s.repo.Apply(ctx, lead.ID, domain.StatusQualified, func(l *repository.Lead) error {
		l.Status = domain.StatusCallRequested
		l.CallRequestID = callID
		return nil
	})
	if err != nil {
		return Dispatch{}, err
	}
	s.log.LeadTransition(updated.ID, string(domain.StatusQualified), string(updated.Status), "call dispatched")
	s.publish(ctx, dispatched)
	return Dispatch{Lead: updated, Dispatched: true}, nil
}

func (s *Service) writeCallRequest(ctx context.Context, callID string, lead repository.Lead) (outbox.Handle, error) {
	now := s.now()
	body, err := newCallRequest(callID, lead, s.calls, now).encode()
	if err != nil {
		return outbox.Handle{}, fmt.Errorf("encode call request: %w", err)
	}
	return s.writer.Write(ctx, outbox.Artifact{
		Kind:        outbox.KindCallRequest,
		LeadID:      lead.ID,
		Label:       "call",
		Ext:         "json",
		ContentType: "application/json",
		Body:        body,
		CreatedAt:   now,
	})
}

func (s *Service) notify(ctx context.Context, event events.Event) error {
	if s.notes == nil {
		return nil
	}
	return s.notes.Notify(ctx, event)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.Error("event handler failed", "event", event.EventName(), "error", err)
	}
}
