package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEmailConfig struct{}

func (staticEmailConfig) GetEmailFromName() string    { return "Sales Team" }
func (staticEmailConfig) GetEmailFromAddress() string { return "sales@example.com" }

type recordingWriter struct {
	artifacts []outbox.Artifact
	err       error
}

func (w *recordingWriter) Write(_ context.Context, a outbox.Artifact) (outbox.Handle, error) {
	if w.err != nil {
		return outbox.Handle{}, w.err
	}
	w.artifacts = append(w.artifacts, a)
	return outbox.Handle{Kind: a.Kind, Name: "mail.eml"}, nil
}

func newTestSender(w *recordingWriter) *OutboxSender {
	s := NewOutboxSender(w, staticEmailConfig{})
	s.SetClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) })
	return s
}

func TestFollowUpEmail(t *testing.T) {
	w := &recordingWriter{}
	_, err := newTestSender(w).SendFollowUpEmail(context.Background(), Recipient{
		LeadID: "ann@example.com", Name: "Ann Lee", Email: "ann@example.com", Company: "Acme", UseCase: "invoicing",
	})
	require.NoError(t, err)
	require.Len(t, w.artifacts, 1)

	a := w.artifacts[0]
	assert.Equal(t, outbox.KindEmail, a.Kind)
	assert.Equal(t, "eml", a.Ext)
	assert.Equal(t, "follow-up", a.Label)

	raw := string(a.Body)
	assert.Contains(t, raw, "Subject: Follow-up: Let's schedule a quick call")
	assert.Contains(t, raw, "ann@example.com")
	assert.Contains(t, raw, "sales@example.com")
	assert.Contains(t, raw, "Hi Ann,")
}

func TestProposalEmailAttachesDocument(t *testing.T) {
	w := &recordingWriter{}
	_, err := newTestSender(w).SendProposalEmail(context.Background(),
		Recipient{LeadID: "bo@example.com", Name: "Bo", Email: "bo@example.com", Company: "Globex"},
		Attachment{FileName: "proposal.md", Content: []byte("# Proposal for Globex\n")},
		false,
	)
	require.NoError(t, err)
	require.Len(t, w.artifacts, 1)

	raw := string(w.artifacts[0].Body)
	assert.Contains(t, raw, "Subject: Globex Automation Proposal")
	assert.Contains(t, raw, `filename="proposal.md"`)
	assert.Equal(t, "proposal", w.artifacts[0].Label)
}

func TestProposalSubjectWithoutCompany(t *testing.T) {
	assert.Equal(t, "Your Automation Proposal", proposalSubject("  "))
	assert.Equal(t, "Initech Automation Proposal", proposalSubject("Initech"))
}

func TestInvalidRecipientIsValidationError(t *testing.T) {
	w := &recordingWriter{}
	_, err := newTestSender(w).SendFollowUpEmail(context.Background(), Recipient{Name: "X", Email: "not-an-address"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	assert.Empty(t, w.artifacts)
}

func TestWriterErrorPropagates(t *testing.T) {
	w := &recordingWriter{err: outbox.ErrWrite}
	_, err := newTestSender(w).SendFollowUpEmail(context.Background(), Recipient{Name: "Ann", Email: "ann@example.com"})
	assert.True(t, errors.Is(err, outbox.ErrWrite))
}

func TestRenderTemplates(t *testing.T) {
	body, err := renderEmailTemplate("proposal.txt", proposalEmailData{
		baseEmailData: baseEmailData{Greeting: "Bo", SenderName: "Sales Team"},
		Company:       "Globex",
		ProposalName:  "p.md",
		Degraded:      true,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Hi Bo,")
	assert.Contains(t, body, "about Globex")
	assert.Contains(t, body, "(p.md)")
	assert.Contains(t, body, "standard proposal template")
	assert.Contains(t, body, "Sales Team")
}
