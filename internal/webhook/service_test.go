package webhook

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"lead_automation_backend/internal/email"
	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/notification"
	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/internal/proposals"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailConfig struct{}

func (mailConfig) GetEmailFromName() string    { return "Sales Team" }
func (mailConfig) GetEmailFromAddress() string { return "sales@example.com" }

type fixture struct {
	processor *Processor
	store     *repository.Store
	sink      *outbox.Sink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	objects, err := outbox.NewFileStore(filepath.Join(t.TempDir(), "outbox"))
	require.NoError(t, err)
	sink := outbox.NewSink(objects, logger.Discard())
	store := repository.NewStore(logger.Discard())
	mailer := email.NewOutboxSender(sink, mailConfig{})
	proposalSvc := proposals.NewService(proposals.NewGenerator(proposals.NewStaticBackend(), logger.Discard()), sink, mailer, store, nil, nil, logger.Discard())

	return fixture{
		processor: NewProcessor(store, mailer, proposalSvc, notification.New(sink, logger.Discard()), nil, nil, logger.Discard()),
		store:     store,
		sink:      sink,
	}
}

// seed adds a lead and walks it to status.
func (f fixture) seed(t *testing.T, id string, status domain.Status) {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.store.Add(ctx, repository.Lead{Name: "Ann Lee", Email: id, Company: "Acme", UseCase: "invoices", Budget: 7000}, repository.PolicyUpsert)
	require.NoError(t, err)

	path := map[domain.Status][]domain.Status{
		domain.StatusNew:           nil,
		domain.StatusUnqualified:   {domain.StatusUnqualified},
		domain.StatusQualified:     {domain.StatusQualified},
		domain.StatusCallRequested: {domain.StatusQualified, domain.StatusCallRequested},
		domain.StatusCallCompleted: {domain.StatusQualified, domain.StatusCallRequested, domain.StatusCallCompleted},
	}[status]

	from := domain.StatusNew
	for _, next := range path {
		_, err := f.store.Apply(ctx, id, from, func(l *repository.Lead) error {
			if next == domain.StatusQualified {
				l.CallRequestID = "cr-" + id
			}
			l.Status = next
			return nil
		})
		require.NoError(t, err)
		from = next
	}
}

func (f fixture) count(t *testing.T, kind outbox.Kind) int {
	t.Helper()
	items, err := f.sink.List(context.Background(), kind)
	require.NoError(t, err)
	return len(items)
}

func (f fixture) notifications(t *testing.T) string {
	t.Helper()
	data, err := f.sink.ReadNotifications(context.Background())
	require.NoError(t, err)
	return string(data)
}

func TestNoAnswerWritesOneFollowUpEmail(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)

	out, err := f.processor.Process(context.Background(), CallEvent{LeadID: "ann@example.com", Kind: "call.no_answer"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNoAnswer, out.Lead.Status)
	assert.Equal(t, EventNoAnswer, out.Kind)
	require.NotNil(t, out.FollowUpEmail)
	assert.Equal(t, 1, f.count(t, outbox.KindEmail))
	assert.Equal(t, 0, f.count(t, outbox.KindProposal))
	assert.Contains(t, f.notifications(t), "ann@example.com | No answer, follow-up email "+out.FollowUpEmail.Name)
}

func TestCompletedWithIntentSendsProposal(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)

	out, err := f.processor.Process(context.Background(), CallEvent{
		LeadID:     "ann@example.com",
		Kind:       "call.completed",
		Transcript: "Great chat. Please send a proposal.",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusProposalSent, out.Lead.Status)
	assert.True(t, out.ProposalRequested)
	assert.Equal(t, "Great chat. Please send a proposal.", out.Lead.CallTranscript)
	require.NotNil(t, out.Proposal)
	assert.Equal(t, out.Proposal.ProposalHandle.Name, out.Lead.ProposalRef)
	assert.Equal(t, 1, f.count(t, outbox.KindProposal))
	assert.Equal(t, 1, f.count(t, outbox.KindEmail))

	mail, err := f.sink.Read(context.Background(), outbox.KindEmail, out.Proposal.EmailHandle.Name)
	require.NoError(t, err)
	assert.Contains(t, string(mail), out.Proposal.ProposalHandle.Name)
	assert.Contains(t, f.notifications(t), "ann@example.com | Proposal sent via static: "+out.Proposal.ProposalHandle.Name)
}

func TestDeclinedProposalIsNotSent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)

	out, err := f.processor.Process(context.Background(), CallEvent{
		LeadID:     "ann@example.com",
		Kind:       "call.completed",
		Transcript: "Thanks, but we do not want a proposal right now.",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNoProposalRequested, out.Lead.Status)
	assert.Nil(t, out.Proposal)
	assert.Equal(t, 0, f.count(t, outbox.KindProposal))
	assert.Equal(t, 0, f.count(t, outbox.KindEmail))
}

func TestCompletedWithoutIntentAppendsNotification(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)

	out, err := f.processor.Process(context.Background(), CallEvent{
		LeadID:     "ann@example.com",
		Kind:       "call.summary",
		Transcript: "Thanks, no proposal needed right now.",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNoProposalRequested, out.Lead.Status)
	assert.False(t, out.ProposalRequested)
	assert.Equal(t, 0, f.count(t, outbox.KindProposal))
	assert.Equal(t, 0, f.count(t, outbox.KindEmail))
	log := f.notifications(t)
	assert.Contains(t, log, "ann@example.com | call completed, no proposal requested")
	assert.Equal(t, 1, strings.Count(log, "\n"))
}

func TestQualifiedLeadPassesThroughCallRequested(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusQualified)

	out, err := f.processor.Process(context.Background(), CallEvent{LeadID: "ann@example.com", Kind: "call.unanswered"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoAnswer, out.Lead.Status)
}

func TestUnknownEvents(t *testing.T) {
	tests := []struct {
		name   string
		status domain.Status
		event  CallEvent
	}{
		{"unknown kind", domain.StatusCallRequested, CallEvent{LeadID: "ann@example.com", Kind: "call.ringing"}},
		{"unknown lead", domain.StatusCallRequested, CallEvent{LeadID: "ghost@example.com", Kind: "call.completed"}},
		{"new lead", domain.StatusNew, CallEvent{LeadID: "ann@example.com", Kind: "call.completed"}},
		{"unqualified lead", domain.StatusUnqualified, CallEvent{LeadID: "ann@example.com", Kind: "call.no_answer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "ann@example.com", tt.status)

			_, err := f.processor.Process(context.Background(), tt.event)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownEvent))
			assert.Equal(t, apperr.KindUnprocessable, apperr.GetKind(err))

			lead, err := f.store.Get(context.Background(), "ann@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.status, lead.Status)
			assert.Equal(t, 0, f.count(t, outbox.KindEmail))
		})
	}
}

func TestRedeliveryIsInvalidTransitionWithoutArtifacts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)
	ctx := context.Background()

	_, err := f.processor.Process(ctx, CallEvent{LeadID: "ann@example.com", Kind: "call.no_answer"})
	require.NoError(t, err)

	for _, kind := range []string{"call.no_answer", "call.completed"} {
		_, err = f.processor.Process(ctx, CallEvent{LeadID: "ann@example.com", Kind: kind, Transcript: "send a proposal"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), kind)
		assert.Equal(t, apperr.KindConflict, apperr.GetKind(err))
	}
	assert.Equal(t, 1, f.count(t, outbox.KindEmail))
	assert.Equal(t, 0, f.count(t, outbox.KindProposal))
}

func TestCompletedLeadRejectsLateEvents(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallCompleted)

	_, err := f.processor.Process(context.Background(), CallEvent{LeadID: "ann@example.com", Kind: "call.completed"})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

type brokenMailer struct{}

func (brokenMailer) SendFollowUpEmail(context.Context, email.Recipient) (outbox.Handle, error) {
	return outbox.Handle{}, apperr.Wrap(apperr.KindInternal, "failed to write emails artifact", fmt.Errorf("%w: disk full", outbox.ErrWrite))
}

func (brokenMailer) SendProposalEmail(context.Context, email.Recipient, email.Attachment, bool) (outbox.Handle, error) {
	return outbox.Handle{}, apperr.Wrap(apperr.KindInternal, "failed to write emails artifact", fmt.Errorf("%w: disk full", outbox.ErrWrite))
}

func TestWriteFailureLeavesLeadUnchanged(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)
	f.processor.mailer = brokenMailer{}

	_, err := f.processor.Process(context.Background(), CallEvent{LeadID: "ann@example.com", Kind: "call.no_answer"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, outbox.ErrWrite))

	lead, err := f.store.Get(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCallRequested, lead.Status)
}

func TestTranscriptIsTruncated(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)

	long := strings.Repeat("é", MaxTranscriptRunes+50)
	out, err := f.processor.Process(context.Background(), CallEvent{LeadID: "ann@example.com", Kind: "call.transcript_finalized", Transcript: long})
	require.NoError(t, err)
	assert.Equal(t, MaxTranscriptRunes, len([]rune(out.Lead.CallTranscript)))
}

type failingStream struct{ calls int }

func (s *failingStream) AppendNotification(context.Context, string, string) error {
	s.calls++
	return apperr.Wrap(apperr.KindInternal, "failed to write notifications artifact", fmt.Errorf("%w: disk full", outbox.ErrWrite))
}

func TestNotificationFailureLeavesLeadUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		event CallEvent
	}{
		{"no answer", CallEvent{LeadID: "ann@example.com", Kind: "call.no_answer"}},
		{"no proposal", CallEvent{LeadID: "ann@example.com", Kind: "call.completed", Transcript: "maybe later"}},
		{"proposal", CallEvent{LeadID: "ann@example.com", Kind: "call.completed", Transcript: "send a proposal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "ann@example.com", domain.StatusCallRequested)
			stream := &failingStream{}
			f.processor.notes = notification.New(stream, logger.Discard())

			_, err := f.processor.Process(context.Background(), tt.event)
			require.Error(t, err)
			assert.True(t, errors.Is(err, outbox.ErrWrite))
			assert.Equal(t, 1, stream.calls)

			lead, err := f.store.Get(context.Background(), "ann@example.com")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCallRequested, lead.Status)
			assert.Empty(t, lead.CallTranscript)
			assert.Empty(t, lead.ProposalRef)
		})
	}
}

type recordingBus struct{ names []string }

func (b *recordingBus) Publish(ctx context.Context, event events.Event) { _ = b.PublishSync(ctx, event) }

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.names = append(b.names, event.EventName())
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func TestEventsFollowTheCommit(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ann@example.com", domain.StatusCallRequested)
	bus := &recordingBus{}
	f.processor.eventBus = bus

	_, err := f.processor.Process(context.Background(), CallEvent{LeadID: "ann@example.com", Kind: "call.completed", Transcript: "no thanks"})
	require.NoError(t, err)
	assert.Equal(t, []string{events.CallCompleted{}.EventName(), events.NoProposalRequested{}.EventName()}, bus.names)
}
