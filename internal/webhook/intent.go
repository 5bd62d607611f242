package webhook

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Intent is the result of scanning a transcript.
type Intent struct {
	ProposalRequested bool
	Phrase            string
}

// IntentDetector decides whether a caller asked for a proposal.
type IntentDetector interface {
	DetectIntent(transcript string) Intent
}

// DefaultProposalPhrases are matched as substrings of the normalized text.
// Wider lists are configured through NewPhraseDetector; a phrase such as
// "want a proposal" also matches "we do not want a proposal".
var DefaultProposalPhrases = []string{
	"send a proposal",
}

// PhraseDetector matches fixed phrases after case folding, NFKC and
// whitespace collapse.
type PhraseDetector struct {
	phrases []string
}

// NewPhraseDetector creates a detector; with no phrases it uses
// DefaultProposalPhrases.
func NewPhraseDetector(phrases ...string) *PhraseDetector {
	if len(phrases) == 0 {
		phrases = DefaultProposalPhrases
	}
	d := &PhraseDetector{}
	for _, p := range phrases {
		if n := d.normalize(p); n != "" {
			d.phrases = append(d.phrases, n)
		}
	}
	return d
}

// DetectIntent returns the first phrase found in transcript.
func (d *PhraseDetector) DetectIntent(transcript string) Intent {
	text := d.normalize(transcript)
	if text == "" {
		return Intent{}
	}
	for _, p := range d.phrases {
		if strings.Contains(text, p) {
			return Intent{ProposalRequested: true, Phrase: p}
		}
	}
	return Intent{}
}

func (d *PhraseDetector) normalize(s string) string {
	// A Caser is stateful, so each call folds with its own.
	s = cases.Fold().String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}
