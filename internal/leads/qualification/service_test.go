package qualification

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/notification"
	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedThreshold float64

func (f fixedThreshold) QualificationThreshold() float64 { return float64(f) }

type callConfig struct{}

func (callConfig) GetCallAssistantID() string     { return "local-assistant" }
func (callConfig) GetCallWebhookURL() string      { return "http://localhost:8080/api/v1/webhook/calls" }
func (callConfig) GetCallSynthesisPrompt() string { return "Friendly sales agent confirming proposal need." }

type fixture struct {
	svc   *Service
	store *repository.Store
	sink  *outbox.Sink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	objects, err := outbox.NewFileStore(filepath.Join(t.TempDir(), "outbox"))
	require.NoError(t, err)
	sink := outbox.NewSink(objects, logger.Discard())
	store := repository.NewStore(logger.Discard())
	svc := New(store, sink, fixedThreshold(DefaultThreshold), callConfig{}, notification.New(sink, logger.Discard()), nil, logger.Discard())
	return fixture{svc: svc, store: store, sink: sink}
}

func (f fixture) add(t *testing.T, email string, budget float64) {
	t.Helper()
	_, _, err := f.store.Add(context.Background(), repository.Lead{Name: "N", Email: email, Company: "Acme", Budget: budget}, repository.PolicyUpsert)
	require.NoError(t, err)
}

func (f fixture) notifications(t *testing.T) string {
	t.Helper()
	data, err := f.sink.ReadNotifications(context.Background())
	require.NoError(t, err)
	return string(data)
}

func (f fixture) callRequests(t *testing.T) []outbox.Handle {
	t.Helper()
	items, err := f.sink.List(context.Background(), outbox.KindCallRequest)
	require.NoError(t, err)
	return items
}

func TestQualifyThresholdIsInclusive(t *testing.T) {
	assert.True(t, Qualify(repository.Lead{Budget: 5000}, 5000).Qualified)
	assert.False(t, Qualify(repository.Lead{Budget: 4999.99}, 5000).Qualified)
	assert.Equal(t, domain.StatusUnqualified, Qualify(repository.Lead{Budget: 0}, 5000).Target())
}

func TestQualifyWritesOneCallRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "ann@example.com", 7000)

	out, err := f.svc.Qualify(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, out.Result.Qualified)
	assert.Equal(t, domain.StatusQualified, out.Lead.Status)
	require.NotNil(t, out.CallRequest)
	assert.NotEmpty(t, out.Lead.CallRequestID)

	items := f.callRequests(t)
	require.Len(t, items, 1)
	raw, err := f.sink.Read(ctx, outbox.KindCallRequest, items[0].Name)
	require.NoError(t, err)

	var cr CallRequest
	require.NoError(t, json.Unmarshal(raw, &cr))
	assert.Equal(t, out.Lead.CallRequestID, cr.ID)
	assert.Equal(t, "ann@example.com", cr.Metadata.LeadID)
	assert.Equal(t, 7000.0, cr.Budget)
	assert.Equal(t, "local-assistant", cr.AssistantID)
}

func TestQualifyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "ann@example.com", 7000)

	first, err := f.svc.Qualify(ctx, "ann@example.com")
	require.NoError(t, err)
	second, err := f.svc.Qualify(ctx, "ann@example.com")
	require.NoError(t, err)

	assert.True(t, second.AlreadyQualified)
	assert.True(t, second.Result.Qualified)
	assert.Nil(t, second.CallRequest)
	assert.Equal(t, first.Lead.CallRequestID, second.Lead.CallRequestID)
	assert.Len(t, f.callRequests(t), 1)
}

func TestQualifyBelowThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "bob@example.com", 3000)

	out, err := f.svc.Qualify(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, out.Result.Qualified)
	assert.Equal(t, domain.StatusUnqualified, out.Lead.Status)
	assert.Empty(t, f.callRequests(t))

	again, err := f.svc.Qualify(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, again.Result.Qualified)
	assert.Equal(t, domain.StatusUnqualified, again.Lead.Status)
}

type brokenWriter struct{}

func (brokenWriter) Write(context.Context, outbox.Artifact) (outbox.Handle, error) {
	return outbox.Handle{}, outbox.ErrWrite
}

func TestQualifyWriteFailureLeavesLeadNew(t *testing.T) {
	store := repository.NewStore(logger.Discard())
	ctx := context.Background()
	_, _, err := store.Add(ctx, repository.Lead{Name: "A", Email: "ann@example.com", Budget: 9000}, repository.PolicyUpsert)
	require.NoError(t, err)

	svc := New(store, brokenWriter{}, fixedThreshold(5000), callConfig{}, nil, nil, logger.Discard())
	_, err = svc.Qualify(ctx, "ann@example.com")
	assert.True(t, errors.Is(err, outbox.ErrWrite))

	lead, _ := store.Get(ctx, "ann@example.com")
	assert.Equal(t, domain.StatusNew, lead.Status)
	assert.Empty(t, lead.CallRequestID)
}

func TestQualifyAllOnlyTouchesNewLeads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "a@example.com", 9000)
	f.add(t, "b@example.com", 100)
	f.add(t, "c@example.com", 5000)
	_, err := f.svc.Qualify(ctx, "a@example.com")
	require.NoError(t, err)

	outcomes, failures, err := f.svc.QualifyAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "b@example.com", outcomes[0].Lead.ID)
	assert.Equal(t, domain.StatusUnqualified, outcomes[0].Lead.Status)
	assert.Equal(t, domain.StatusQualified, outcomes[1].Lead.Status)
	assert.Len(t, f.callRequests(t), 2)
}

func TestDispatchCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "ann@example.com", 9000)
	f.add(t, "bob@example.com", 10)

	_, err := f.svc.DispatchCall(ctx, "ann@example.com")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "New lead cannot be dispatched")

	_, err = f.svc.Qualify(ctx, "ann@example.com")
	require.NoError(t, err)

	d, err := f.svc.DispatchCall(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, d.Dispatched)
	assert.Equal(t, domain.StatusCallRequested, d.Lead.Status)

	d, err = f.svc.DispatchCall(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.False(t, d.Dispatched)
	assert.Len(t, f.callRequests(t), 1, "dispatch reuses the recorded call request")

	_, err = f.svc.Qualify(ctx, "bob@example.com")
	require.NoError(t, err)
	_, err = f.svc.DispatchCall(ctx, "bob@example.com")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestTransitionsWriteNotificationLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "ann@example.com", 12000)
	f.add(t, "bob@example.com", 3000)

	_, err := f.svc.Qualify(ctx, "ann@example.com")
	require.NoError(t, err)
	_, err = f.svc.Qualify(ctx, "bob@example.com")
	require.NoError(t, err)
	d, err := f.svc.DispatchCall(ctx, "ann@example.com")
	require.NoError(t, err)

	log := f.notifications(t)
	assert.Contains(t, log, "ann@example.com | Lead qualified budget 12,000")
	assert.Contains(t, log, "bob@example.com | Lead unqualified budget 3,000 below threshold 5,000")
	assert.Contains(t, log, "ann@example.com | Call requested: "+d.Lead.CallRequestID)
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) Notify(context.Context, events.Event) error {
	n.calls++
	return outbox.ErrWrite
}

func TestNotificationFailureLeavesLeadUnchanged(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(logger.Discard())
	objects, err := outbox.NewFileStore(filepath.Join(t.TempDir(), "outbox"))
	require.NoError(t, err)
	sink := outbox.NewSink(objects, logger.Discard())
	notes := &failingNotifier{}
	svc := New(store, sink, fixedThreshold(5000), callConfig{}, notes, nil, logger.Discard())

	for _, email := range []string{"ann@example.com", "bob@example.com"} {
		budget := 9000.0
		if email == "bob@example.com" {
			budget = 100
		}
		_, _, err := store.Add(ctx, repository.Lead{Name: "N", Email: email, Budget: budget}, repository.PolicyUpsert)
		require.NoError(t, err)

		_, err = svc.Qualify(ctx, email)
		assert.True(t, errors.Is(err, outbox.ErrWrite), email)

		lead, _ := store.Get(ctx, email)
		assert.Equal(t, domain.StatusNew, lead.Status, email)
		assert.Empty(t, lead.CallRequestID, email)
	}
	assert.Equal(t, 2, notes.calls)

	_, err = store.UpdateStatus(ctx, "ann@example.com", domain.StatusQualified)
	require.NoError(t, err)
	_, err = svc.DispatchCall(ctx, "ann@example.com")
	assert.True(t, errors.Is(err, outbox.ErrWrite))
	lead, _ := store.Get(ctx, "ann@example.com")
	assert.Equal(t, domain.StatusQualified, lead.Status)
}
