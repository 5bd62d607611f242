package outbox

import (
	apphttp "lead_automation_backend/internal/http"
)

// Module serves the artifact viewer under /outbox.
type Module struct {
	handler *Handler
}

// NewModule creates the outbox module over sink.
func NewModule(sink *Sink) *Module {
	return &Module{handler: NewHandler(sink)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "outbox"
}

// RegisterRoutes mounts the read-only outbox routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/outbox"))
}

var _ apphttp.Module = (*Module)(nil)
