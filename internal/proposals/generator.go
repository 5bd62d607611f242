package proposals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lead_automation_backend/platform/logger"
)

// Generator picks the active backend and applies the fallback policy.
type Generator struct {
	static *StaticBackend
	log    *logger.Logger
	now    func() time.Time

	mu       sync.RWMutex
	backends map[BackendKind]Backend
	active   BackendKind
}

// NewGenerator creates a generator whose only backend is static. Register
// adds the generative one.
func NewGenerator(static *StaticBackend, log *logger.Logger) *Generator {
	return &Generator{
		static:   static,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		backends: map[BackendKind]Backend{BackendStatic: static},
		active:   BackendStatic,
	}
}

// Register makes b selectable.
func (g *Generator) Register(b Backend) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.backends[b.Name()] = b
}

// Use switches the active backend.
func (g *Generator) Use(kind BackendKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.backends[kind]; !ok {
		return fmt.Errorf("proposal backend %s is not registered", kind)
	}
	g.active = kind
	return nil
}

// Active returns the selected backend kind.
func (g *Generator) Active() BackendKind {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// Generate drafts a proposal. A failing generative backend never fails the
// call: the static template is used and the result is marked degraded.
func (g *Generator) Generate(ctx context.Context, brief LeadBrief) (Proposal, error) {
	g.mu.RLock()
	backend := g.backends[g.active]
	g.mu.RUnlock()

	proposal := Proposal{LeadID: brief.LeadID, Backend: backend.Name()}
	content, err := backend.Generate(ctx, brief)
	if err != nil && backend.Name() != BackendStatic {
		reason := fallbackReason(err)
		if g.log != nil {
			g.log.Warn("generative proposal failed, using static template", "leadId", brief.LeadID, "reason", reason, "error", err)
		}
		proposal.Backend = BackendStatic
		proposal.Degraded = true
		proposal.FallbackReason = reason
		content, err = g.static.Generate(ctx, brief)
	}
	if err != nil {
		return Proposal{}, err
	}

	proposal.Content = content
	proposal.GeneratedAt = g.now()
	return proposal, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrGenerationTimeout):
		return "timeout"
	case errors.Is(err, ErrBackendUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
