package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEventFlat(t *testing.T) {
	ev, err := ExtractEvent([]byte(`{"leadId":"ann@example.com","eventKind":"call.completed","transcript":"send a proposal"}`))
	require.NoError(t, err)
	assert.Equal(t, CallEvent{LeadID: "ann@example.com", Kind: "call.completed", Transcript: "send a proposal"}, ev)
}

func TestExtractEventFlatAliases(t *testing.T) {
	ev, err := ExtractEvent([]byte(`{"email":"other@example.com","lead_id":"ann@example.com","event_type":"call.summary","summary":"short"}`))
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", ev.LeadID)
	assert.Equal(t, "call.summary", ev.Kind)
	assert.Equal(t, "short", ev.Transcript)
}

func TestExtractEventFlatPriorityIsStable(t *testing.T) {
	body := []byte(`{"id":"call-42","email":"ann@example.com","type":"call.summary","event":"call.completed","kind":"x","transcript":"t","summary":"s"}`)
	for i := 0; i < 50; i++ {
		ev, err := ExtractEvent(body)
		require.NoError(t, err)
		assert.Equal(t, CallEvent{LeadID: "ann@example.com", Kind: "call.completed", Transcript: "t"}, ev)
	}
}

func TestExtractEventFlatEquivalentKeys(t *testing.T) {
	body := []byte(`{"lead_id":"a@example.com","leadId":"b@example.com","Lead-Id":"c@example.com"}`)
	for i := 0; i < 50; i++ {
		ev, err := ExtractEvent(body)
		require.NoError(t, err)
		assert.Equal(t, "c@example.com", ev.LeadID)
	}
}

func TestExtractEventEnvelope(t *testing.T) {
	body := `{"message":{"type":"call.transcript_finalized","artifact":{"transcript":"please send proposal"},
		"call":{"metadata":{"leadEmail":"ann@example.com"}}}}`
	ev, err := ExtractEvent([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, CallEvent{LeadID: "ann@example.com", Kind: "call.transcript_finalized", Transcript: "please send proposal"}, ev)
}

func TestExtractEventRejectsInvalidJSON(t *testing.T) {
	_, err := ExtractEvent([]byte(`{"leadId":`))
	assert.Error(t, err)
}
