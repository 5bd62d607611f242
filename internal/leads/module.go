// Package leads provides the lead bounded context module: intake,
// qualification and call dispatch.
package leads

import (
	"lead_automation_backend/internal/events"
	apphttp "lead_automation_backend/internal/http"
	"lead_automation_backend/internal/leads/handler"
	"lead_automation_backend/internal/leads/management"
	"lead_automation_backend/internal/leads/qualification"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/platform/logger"
	"lead_automation_backend/platform/validator"
)

// Config combines the settings the leads module reads.
type Config interface {
	management.Config
	qualification.CallConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	management    *management.Service
	qualification *qualification.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(
	repo repository.LeadRepository,
	writer qualification.ArtifactWriter,
	threshold qualification.ThresholdSource,
	notes qualification.Notifier,
	eventBus events.Bus,
	val *validator.Validator,
	cfg Config,
	log *logger.Logger,
) *Module {
	mgmtSvc := management.New(repo, val, eventBus, cfg, log)
	qualifySvc := qualification.New(repo, writer, threshold, cfg, notes, eventBus, log)

	return &Module{
		handler:       handler.New(mgmtSvc, qualifySvc),
		management:    mgmtSvc,
		qualification: qualifySvc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// QualificationService returns the qualification service for external use.
func (m *Module) QualificationService() *qualification.Service {
	return m.qualification
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"), ctx.Gate.Middleware())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
