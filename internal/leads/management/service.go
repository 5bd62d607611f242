// Package management handles lead intake: single adds, CSV imports and reads.
package management

import (
	"context"
	"errors"
	"math"
	"strings"

	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/leads/transport"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"
	"lead_automation_backend/platform/phone"
	"lead_automation_backend/platform/sanitize"
	"lead_automation_backend/platform/validator"
)

// ErrValidation marks malformed lead input.
var ErrValidation = errors.New("invalid lead")

// Repository defines the data access interface needed by the management service.
// This is a consumer-driven interface - only what management needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
}

// Config is the lead intake configuration.
type Config interface {
	GetLeadDuplicatePolicy() string
	GetPhoneDefaultRegion() string
}

// Service handles lead management operations.
type Service struct {
	repo     Repository
	val      *validator.Validator
	eventBus events.Bus
	policy   repository.DuplicatePolicy
	region   string
	log      *logger.Logger
}

// New creates a new lead management service.
func New(repo Repository, val *validator.Validator, eventBus events.Bus, cfg Config, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		val:      val,
		eventBus: eventBus,
		policy:   repository.ParseDuplicatePolicy(cfg.GetLeadDuplicatePolicy()),
		region:   cfg.GetPhoneDefaultRegion(),
		log:      log,
	}
}

// Add validates and stores a single lead.
func (s *Service) Add(ctx context.Context, req transport.CreateLeadRequest) (transport.AddLeadResponse, error) {
	lead, created, err := s.add(ctx, req)
	if err != nil {
		return transport.AddLeadResponse{}, err
	}

	s.publish(ctx, events.LeadAdded{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Created:   created,
	})
	return transport.AddLeadResponse{Lead: ToLeadResponse(lead), Created: created}, nil
}

// Get retrieves a lead by id.
func (s *Service) Get(ctx context.Context, id string) (transport.LeadResponse, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead), nil
}

// List returns every lead in insertion order.
func (s *Service) List(ctx context.Context) (transport.LeadListResponse, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return transport.LeadListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) add(ctx context.Context, req transport.CreateLeadRequest) (repository.Lead, bool, error) {
	req = normalize(req, s.region)
	if math.IsNaN(req.Budget) || math.IsInf(req.Budget, 0) {
		return repository.Lead{}, false, validationError("budget must be a finite number", nil)
	}
	if err := s.val.Struct(req); err != nil {
		return repository.Lead{}, false, validationError(validator.Describe(err), validator.Fields(err))
	}

	return s.repo.Add(ctx, repository.Lead{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		UseCase: req.UseCase,
		Budget:  req.Budget,
		Phone:   req.Phone,
	}, s.policy)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.Error("event handler failed", "event", event.EventName(), "error", err)
	}
}

func normalize(req transport.CreateLeadRequest, region string) transport.CreateLeadRequest {
	req.Name = sanitize.SingleLine(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Company = sanitize.SingleLine(req.Company)
	req.UseCase = sanitize.Text(req.UseCase)
	req.Phone = phone.NormalizeE164(req.Phone, region)
	return req
}

func validationError(message string, details interface{}) error {
	err := apperr.Wrap(apperr.KindValidation, message, ErrValidation)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}
