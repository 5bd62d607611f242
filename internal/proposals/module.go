package proposals

import (
	apphttp "lead_automation_backend/internal/http"
)

// Module exposes manual proposal generation.
type Module struct {
	handler *Handler
}

func NewModule(svc *Service) *Module {
	return &Module{handler: NewHandler(svc)}
}

func (m *Module) Name() string {
	return "proposals"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"), ctx.Gate.Middleware())
}

var _ apphttp.Module = (*Module)(nil)
