// Package email renders customer emails as RFC 5322 messages and hands them
// to the outbox. Nothing is delivered over the network.
package email

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"lead_automation_backend/internal/outbox"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/config"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// Recipient is the lead an email is addressed to.
type Recipient struct {
	LeadID  string
	Name    string
	Email   string
	Company string
	UseCase string
}

// Attachment represents a file attachment for an email.
type Attachment struct {
	FileName string
	Content  []byte
}

// Sender composes the two customer emails of the pipeline.
type Sender interface {
	SendFollowUpEmail(ctx context.Context, to Recipient) (outbox.Handle, error)
	SendProposalEmail(ctx context.Context, to Recipient, proposal Attachment, degraded bool) (outbox.Handle, error)
}

// ArtifactWriter persists a rendered message.
type ArtifactWriter interface {
	Write(ctx context.Context, a outbox.Artifact) (outbox.Handle, error)
}

// OutboxSender renders messages with go-mail and writes them as .eml
// artifacts.
type OutboxSender struct {
	writer    ArtifactWriter
	fromName  string
	fromEmail string
	now       func() time.Time
}

// NewOutboxSender creates a sender stamping cfg's identity on every message.
func NewOutboxSender(writer ArtifactWriter, cfg config.EmailConfig) *OutboxSender {
	return &OutboxSender{
		writer:    writer,
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the Date header source.
func (s *OutboxSender) SetClock(now func() time.Time) { s.now = now }

func (s *OutboxSender) SendFollowUpEmail(ctx context.Context, to Recipient) (outbox.Handle, error) {
	content, err := renderEmailTemplate("follow_up.txt", followUpEmailData{
		baseEmailData: s.base(to),
		Company:       to.Company,
		UseCase:       to.UseCase,
	})
	if err != nil {
		return outbox.Handle{}, err
	}
	return s.send(ctx, to, "follow-up", subjectFollowUp, content)
}

func (s *OutboxSender) SendProposalEmail(ctx context.Context, to Recipient, proposal Attachment, degraded bool) (outbox.Handle, error) {
	content, err := renderEmailTemplate("proposal.txt", proposalEmailData{
		baseEmailData: s.base(to),
		Company:       to.Company,
		ProposalName:  proposal.FileName,
		Degraded:      degraded,
	})
	if err != nil {
		return outbox.Handle{}, err
	}
	return s.send(ctx, to, "proposal", proposalSubject(to.Company), content, proposal)
}

func (s *OutboxSender) send(ctx context.Context, to Recipient, label, subject, body string, attachments ...Attachment) (outbox.Handle, error) {
	raw, err := s.render(to, subject, body, attachments...)
	if err != nil {
		return outbox.Handle{}, err
	}
	return s.writer.Write(ctx, outbox.Artifact{
		Kind:        outbox.KindEmail,
		LeadID:      to.LeadID,
		Label:       label,
		Ext:         "eml",
		ContentType: "message/rfc822",
		Body:        raw,
	})
}

func (s *OutboxSender) render(to Recipient, subject, body string, attachments ...Attachment) ([]byte, error) {
	// 8bit keeps the plain-text body readable in the .eml artifact.
	msg := gomail.NewMsg(gomail.WithEncoding(gomail.NoEncoding))
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "invalid sender address", err)
	}
	if err := msg.AddToFormat(strings.TrimSpace(to.Name), strings.TrimSpace(to.Email)); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid recipient address "+to.Email, err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(s.now())
	msg.SetMessageIDWithValue(uuid.NewString() + "@" + senderDomain(s.fromEmail))
	msg.SetBodyString(gomail.TypeTextPlain, body)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *OutboxSender) base(to Recipient) baseEmailData {
	greeting := strings.TrimSpace(to.Name)
	if fields := strings.Fields(greeting); len(fields) > 0 {
		greeting = fields[0]
	} else {
		greeting = "there"
	}
	return baseEmailData{Greeting: greeting, SenderName: s.fromName}
}

func proposalSubject(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		return subjectProposalAlt
	}
	return fmt.Sprintf(subjectProposalFmt, company)
}

func senderDomain(addr string) string {
	if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return "localhost"
}

var _ Sender = (*OutboxSender)(nil)
