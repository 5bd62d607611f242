package proposals

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/static.md.tmpl
var staticTemplateSource string

var staticTemplate = template.Must(template.New("static.md").Parse(staticTemplateSource))

// Plan is a packaged offering chosen from the lead's budget.
type Plan struct {
	Name         string
	Summary      string
	Deliverables []string
	Timeline     string
}

var plans = []struct {
	below float64
	plan  Plan
}{
	{10000, Plan{
		Name:     "Starter",
		Summary:  "one automated workflow delivered as a focused pilot.",
		Timeline: "2 to 3 weeks",
		Deliverables: []string{
			"Discovery session and process map",
			"One production workflow with monitoring",
			"Handover and runbook",
		},
	}},
	{50000, Plan{
		Name:     "Growth",
		Summary:  "a set of connected workflows with system integrations.",
		Timeline: "4 to 6 weeks",
		Deliverables: []string{
			"Discovery and solution design",
			"Up to three integrated workflows",
			"Pilot with iteration cycle",
			"Team training",
		},
	}},
	{0, Plan{
		Name:     "Enterprise",
		Summary:  "a managed automation program across teams.",
		Timeline: "8 to 12 weeks, phased",
		Deliverables: []string{
			"Architecture and governance review",
			"Phased rollout of prioritized workflows",
			"Observability, security and access controls",
			"Dedicated success manager",
		},
	}},
}

// PlanFor returns the plan matching budget.
func PlanFor(budget float64) Plan {
	for _, p := range plans {
		if p.below > 0 && budget < p.below {
			return p.plan
		}
	}
	return plans[len(plans)-1].plan
}

// StaticBackend fills a fixed Markdown template. It never fails for a lead
// with a finite budget.
type StaticBackend struct {
	now func() time.Time
}

// NewStaticBackend creates the template backend.
func NewStaticBackend() *StaticBackend {
	return &StaticBackend{now: func() time.Time { return time.Now().UTC() }}
}

func (s *StaticBackend) Name() BackendKind { return BackendStatic }

func (s *StaticBackend) Generate(_ context.Context, brief LeadBrief) (string, error) {
	data := struct {
		Name    string
		Email   string
		Company string
		UseCase string
		Budget  string
		Date    string
		Plan    Plan
	}{
		Name:    orPlaceholder(brief.Name, "(Name)"),
		Email:   brief.Email,
		Company: orPlaceholder(brief.Company, "(Company)"),
		UseCase: orPlaceholder(brief.UseCase, "To be refined during discovery."),
		Budget:  formatBudget(brief.Budget),
		Date:    s.now().Format("2006-01-02"),
		Plan:    PlanFor(brief.Budget),
	}

	var buf bytes.Buffer
	if err := staticTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render static proposal: %w", err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func formatBudget(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f", v)
}
