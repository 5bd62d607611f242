// Package webhook provides the call event bounded context module: it turns
// call provider deliveries into lead transitions.
package webhook

import (
	apphttp "lead_automation_backend/internal/http"
	"lead_automation_backend/platform/httpkit"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler   *Handler
	processor *Processor
	limiter   *httpkit.IPRateLimiter
}

// NewModule creates the webhook module around processor. Requests are rate
// limited per client IP by limiter.
func NewModule(processor *Processor, limiter *httpkit.IPRateLimiter) *Module {
	return &Module{
		handler:   NewHandler(processor),
		processor: processor,
		limiter:   limiter,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// Processor returns the event processor for external use.
func (m *Module) Processor() *Processor {
	return m.processor
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	webhookGroup := ctx.V1.Group("/webhook")
	if m.limiter != nil {
		webhookGroup.Use(m.limiter.RateLimit())
	}
	webhookGroup.POST("/calls", ctx.Gate.Middleware(), m.handler.HandleCallEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
