package proposals

import (
	"fmt"
	"strings"

	"lead_automation_backend/platform/sanitize"
)

const (
	proposalSystemPrompt = "You are a sales solutions architect who drafts concise, tailored automation proposals."

	maxPromptTranscript = 2000
)

func buildProposalPrompt(brief LeadBrief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a crisp proposal (at most 2 pages, Markdown) for %s based on this lead:\n\n", orPlaceholder(brief.Company, "(Company)"))
	fmt.Fprintf(&b, "- Prospect: %s\n", orPlaceholder(brief.Name, "(Name)"))
	fmt.Fprintf(&b, "- Email: %s\n", brief.Email)
	fmt.Fprintf(&b, "- Use case: %s\n", orPlaceholder(brief.UseCase, "not specified"))
	fmt.Fprintf(&b, "- Budget: $%s\n", formatBudget(brief.Budget))
	if t := strings.TrimSpace(brief.Transcript); t != "" {
		fmt.Fprintf(&b, "\nNotes from the discovery call:\n%s\n", sanitize.Truncate(t, maxPromptTranscript))
	}
	b.WriteString("\nStructure:\n")
	b.WriteString("1) Problem summary\n")
	b.WriteString("2) Proposed automation solution (people, process, tech)\n")
	b.WriteString("3) Architecture (bullet points)\n")
	b.WriteString("4) Timeline & milestones\n")
	b.WriteString("5) Pricing in the stated budget\n")
	b.WriteString("6) Next steps (CTA)\n")
	b.WriteString("\nReturn only the proposal Markdown.")
	return b.String()
}

func orPlaceholder(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}
