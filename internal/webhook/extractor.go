package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractEvent decodes a webhook body. Two shapes are accepted: a flat object
// whose keys are matched loosely ("leadId", "lead_email", "eventKind",
// "type", ...) and the provider envelope
// {"message": {"type", "transcript"|"summary"|"artifact": {"transcript"},
// "call": {"metadata": {"leadId"|"leadEmail"}}}}.
func ExtractEvent(body []byte) (CallEvent, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return CallEvent{}, fmt.Errorf("decode webhook body: %w", err)
	}
	if msg, ok := raw["message"].(map[string]any); ok {
		return extractEnvelope(msg), nil
	}
	return extractFlat(raw), nil
}

// Field label patterns, in priority order
var (
	leadIDPatterns     = []string{"leadid", "lead_id", "leademail", "lead_email", "lead", "email", "id"}
	eventKindPatterns  = []string{"eventkind", "event_kind", "eventtype", "event_type", "event", "type", "kind"}
	transcriptPatterns = []string{"transcript", "calltranscript", "call_transcript"}
	summaryPatterns    = []string{"summary", "callsummary", "call_summary"}
)

var labelNormalizer = strings.NewReplacer("-", "", "_", "", " ", "")

func normalizeLabel(label string) string {
	return labelNormalizer.Replace(strings.ToLower(strings.TrimSpace(label)))
}

func extractFlat(data map[string]any) CallEvent {
	// Keys that normalize alike ("lead_id", "leadId") resolve to the
	// lexically smallest original key.
	values := make(map[string]string, len(data))
	origins := make(map[string]string, len(data))
	for key, v := range data {
		value, ok := v.(string)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		k := normalizeLabel(key)
		if prev, seen := origins[k]; seen && prev < key {
			continue
		}
		values[k] = value
		origins[k] = key
	}

	ev := CallEvent{
		LeadID:     firstMatch(values, leadIDPatterns),
		Kind:       firstMatch(values, eventKindPatterns),
		Transcript: firstMatch(values, transcriptPatterns),
	}
	if ev.Transcript == "" {
		ev.Transcript = firstMatch(values, summaryPatterns)
	}
	return ev
}

// firstMatch returns the value of the highest-priority pattern present.
func firstMatch(values map[string]string, patterns []string) string {
	for _, p := range patterns {
		if v, ok := values[normalizeLabel(p)]; ok {
			return v
		}
	}
	return ""
}

func extractEnvelope(msg map[string]any) CallEvent {
	ev := CallEvent{
		Kind:       stringAt(msg, "type"),
		Transcript: stringAt(msg, "transcript"),
	}
	if ev.Transcript == "" {
		ev.Transcript = stringAt(msg, "artifact", "transcript")
	}
	if ev.Transcript == "" {
		ev.Transcript = stringAt(msg, "summary")
	}
	ev.LeadID = stringAt(msg, "call", "metadata", "leadId")
	if ev.LeadID == "" {
		ev.LeadID = stringAt(msg, "call", "metadata", "leadEmail")
	}
	return ev
}

func stringAt(m map[string]any, path ...string) string {
	var cur any = m
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[p]
	}
	s, _ := cur.(string)
	return strings.TrimSpace(s)
}
