package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(opts ...Option) *Store {
	return NewStore(logger.Discard(), append([]Option{WithClock(fixedClock())}, opts...)...)
}

func TestAddAssignsIdentityAndKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	for _, email := range []string{"Zed@Example.com", "amy@example.com", "bob@example.com"} {
		_, created, err := store.Add(ctx, Lead{Name: "n", Email: email}, PolicyUpsert)
		require.NoError(t, err)
		require.True(t, created)
	}

	leads, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "zed@example.com", leads[0].ID)
	assert.Equal(t, "amy@example.com", leads[1].ID)
	assert.Equal(t, "bob@example.com", leads[2].ID)
	assert.Equal(t, domain.StatusNew, leads[0].Status)
}

func TestAddUpsertKeepsPipelineState(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, _, err := store.Add(ctx, Lead{Name: "Ann", Email: "ann@example.com", Budget: 7000}, PolicyUpsert)
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, "ann@example.com", domain.StatusQualified)
	require.NoError(t, err)

	updated, created, err := store.Add(ctx, Lead{Name: "Ann B", Email: "ANN@example.com", Budget: 9000, Status: domain.StatusNew}, PolicyUpsert)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Ann B", updated.Name)
	assert.Equal(t, 9000.0, updated.Budget)
	assert.Equal(t, domain.StatusQualified, updated.Status)

	leads, _ := store.List(ctx)
	assert.Len(t, leads, 1)
}

func TestAddRejectPolicy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, _, err := store.Add(ctx, Lead{Email: "ann@example.com"}, PolicyReject)
	require.NoError(t, err)

	_, _, err = store.Add(ctx, Lead{Email: "ann@example.com"}, PolicyReject)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateLead))
	assert.Equal(t, apperr.KindConflict, apperr.GetKind(err))
}

func TestGetUnknownLead(t *testing.T) {
	_, err := newTestStore().Get(context.Background(), "ghost@example.com")
	assert.True(t, errors.Is(err, ErrLeadNotFound))
	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}

func TestUpdateStatusEnforcesOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, _, err := store.Add(ctx, Lead{Email: "ann@example.com"}, PolicyUpsert)
	require.NoError(t, err)

	_, err = store.UpdateStatus(ctx, "ann@example.com", domain.StatusCallRequested)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	lead, err := store.UpdateStatus(ctx, "ann@example.com", domain.StatusUnqualified)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnqualified, lead.Status)

	_, err = store.UpdateStatus(ctx, "ann@example.com", domain.StatusQualified)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	got, _ := store.Get(ctx, "ann@example.com")
	assert.Equal(t, domain.StatusUnqualified, got.Status)
}

func TestApplyIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, _, err := store.Add(ctx, Lead{Email: "ann@example.com"}, PolicyUpsert)
	require.NoError(t, err)

	_, err = store.Apply(ctx, "ann@example.com", domain.StatusQualified, func(l *Lead) error {
		l.Status = domain.StatusCallRequested
		return nil
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "stale expectation must fail")

	errAbort := errors.New("abort")
	_, err = store.Apply(ctx, "ann@example.com", domain.StatusNew, func(l *Lead) error {
		l.Status = domain.StatusQualified
		l.CallRequestID = "cr-1"
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	got, _ := store.Get(ctx, "ann@example.com")
	assert.Equal(t, domain.StatusNew, got.Status, "failed apply must not commit")
	assert.Empty(t, got.CallRequestID)

	got, err = store.Apply(ctx, "ann@example.com", domain.StatusNew, func(l *Lead) error {
		l.Status = domain.StatusQualified
		l.CallRequestID = "cr-1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cr-1", got.CallRequestID)

	_, err = store.Apply(ctx, "ann@example.com", domain.StatusQualified, func(l *Lead) error {
		l.CallRequestID = "cr-2"
		return nil
	})
	assert.Error(t, err, "a recorded call request is immutable")
}

func TestApplyAllowsMultiStepAdvanceButNoRegression(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	_, _, err := store.Add(ctx, Lead{Email: "ann@example.com"}, PolicyUpsert)
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, "ann@example.com", domain.StatusQualified)
	require.NoError(t, err)

	lead, err := store.Apply(ctx, "ann@example.com", domain.StatusQualified, func(l *Lead) error {
		l.Status = domain.StatusNoAnswer
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoAnswer, lead.Status)

	_, err = store.Apply(ctx, "ann@example.com", domain.StatusNoAnswer, func(l *Lead) error {
		l.Status = domain.StatusCallRequested
		return nil
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestFileSnapshotRoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "leads.json")
	snap := NewFileSnapshot(path)

	store := newTestStore(WithSnapshot(snap))
	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		_, _, err := store.Add(ctx, Lead{Name: email, Email: email, Budget: 10}, PolicyUpsert)
		require.NoError(t, err)
	}
	_, err := store.UpdateStatus(ctx, "a@example.com", domain.StatusQualified)
	require.NoError(t, err)

	restored := newTestStore(WithSnapshot(snap))
	n, err := restored.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	leads, _ := restored.List(ctx)
	assert.Equal(t, []string{"c@example.com", "a@example.com", "b@example.com"},
		[]string{leads[0].ID, leads[1].ID, leads[2].ID})
	assert.Equal(t, domain.StatusQualified, leads[1].Status)
}

func TestFileSnapshotMissingFileIsEmpty(t *testing.T) {
	leads, err := NewFileSnapshot(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
}
