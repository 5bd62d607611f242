package email

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

type baseEmailData struct {
	Greeting   string
	SenderName string
}

type followUpEmailData struct {
	baseEmailData
	Company string
	UseCase string
}

type proposalEmailData struct {
	baseEmailData
	Company      string
	ProposalName string
	Degraded     bool
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.txt", "templates/" + name}
	tmpl, err := template.New("base.txt").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
