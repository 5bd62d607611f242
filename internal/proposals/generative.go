package proposals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"lead_automation_backend/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	DefaultGenerationTimeout = 30 * time.Second

	// minGeneratedRunes rejects empty or placeholder replies.
	minGeneratedRunes = 80
)

// GenerativeBackend drafts proposals with an LLM agent. Every call is a
// single attempt bounded by the configured timeout.
type GenerativeBackend struct {
	appName        string
	runner         *runner.Runner
	sessionService session.Service
	timeout        time.Duration
	log            *logger.Logger
}

// NewGenerativeBackend wires an agent around llm.
func NewGenerativeBackend(llm model.LLM, timeout time.Duration, log *logger.Logger) (*GenerativeBackend, error) {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	b := &GenerativeBackend{
		appName: "proposal_writer",
		timeout: timeout,
		log:     log,
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "ProposalWriter",
		Model:       llm,
		Description: "Drafts tailored automation proposals for qualified sales leads",
		Instruction: proposalSystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        b.appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal runner: %w", err)
	}

	b.runner = r
	b.sessionService = sessionService
	return b, nil
}

func (b *GenerativeBackend) Name() BackendKind { return BackendGenerative }

// Generate returns ErrGenerationTimeout when the deadline passes and
// ErrBackendUnavailable for any other failure, including output too short
// to be a proposal.
func (b *GenerativeBackend) Generate(ctx context.Context, brief LeadBrief) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	userID := "proposal-" + brief.LeadID
	sessionID := uuid.New().String()
	if _, err := b.sessionService.Create(runCtx, &session.CreateRequest{
		AppName:   b.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", b.classify(runCtx, fmt.Errorf("create session: %w", err))
	}
	defer func() {
		if err := b.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   b.appName,
			UserID:    userID,
			SessionID: sessionID,
		}); err != nil && b.log != nil {
			b.log.Warn("failed to delete proposal session", "error", err)
		}
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: buildProposalPrompt(brief)}},
	}
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	var output strings.Builder
	for event, err := range b.runner.Run(runCtx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", b.classify(runCtx, err)
		}
		if event == nil {
			continue
		}
		output.WriteString(collectContentText(event.Content))
	}
	if runCtx.Err() != nil {
		return "", b.classify(runCtx, runCtx.Err())
	}

	text := strings.TrimSpace(output.String())
	if utf8.RuneCountInString(text) < minGeneratedRunes {
		return "", unavailable(fmt.Errorf("model returned %d characters", utf8.RuneCountInString(text)))
	}
	return text + "\n", nil
}

func (b *GenerativeBackend) classify(runCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return timedOut(b.timeout)
	}
	return unavailable(err)
}

func collectContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
