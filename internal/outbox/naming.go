package outbox

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	nameTimeLayout = "20060102T150405.000000Z"
	maxSlugLength  = 48
)

// artifactName builds <timestamp>_<seq>_<lead>[_<label>].<ext>. The sequence
// is process-wide, so two writes from one process never share a name.
func artifactName(ts time.Time, seq uint64, leadID, label, ext string) string {
	lead := Slug(leadID)
	if lead == "" {
		lead = "general"
	}
	name := fmt.Sprintf("%s_%06d_%s", ts.UTC().Format(nameTimeLayout), seq, lead)
	if l := Slug(label); l != "" {
		name += "_" + l
	}
	return name + "." + strings.ToLower(ext)
}

// Slug folds accents, lower-cases and keeps [a-z0-9.] with single dashes
// between runs, e.g. "Café Noir@Example.com" -> "cafe-noir-example.com".
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	out := strings.Trim(b.String(), ".-")
	if len(out) > maxSlugLength {
		out = strings.TrimRight(out[:maxSlugLength], ".-")
	}
	return out
}
