package settings

import (
	apphttp "lead_automation_backend/internal/http"
)

// Module is the settings module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the settings module around svc.
func NewModule(svc *Service) *Module {
	return &Module{handler: NewHandler(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the settings service for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts settings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/settings")
	group.GET("", m.handler.Get)
	group.PUT("", ctx.Gate.Middleware(), m.handler.Update)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
