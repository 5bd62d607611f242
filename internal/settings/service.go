// Package settings holds the values an operator can change while the
// service runs: the qualification threshold and the proposal backend.
package settings

import (
	"context"
	"errors"
	"math"
	"sync"

	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/proposals"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"
	"lead_automation_backend/platform/validator"
)

// ErrValidation marks a rejected settings update.
var ErrValidation = errors.New("invalid settings")

// BackendSwitch selects the active proposal backend.
type BackendSwitch interface {
	Use(kind proposals.BackendKind) error
	Active() proposals.BackendKind
}

// Settings is the current runtime configuration.
type Settings struct {
	QualificationThreshold float64 `json:"qualificationThreshold"`
	ProposalBackend        string  `json:"proposalBackend"`
}

// UpdateRequest changes any subset of the settings.
type UpdateRequest struct {
	QualificationThreshold *float64 `json:"qualificationThreshold" validate:"omitempty,gte=0"`
	ProposalBackend        *string  `json:"proposalBackend" validate:"omitempty,oneof=static generative"`
}

// Service stores the settings; it is safe for concurrent use.
type Service struct {
	mu        sync.RWMutex
	threshold float64
	backends  BackendSwitch
	val       *validator.Validator
	eventBus  events.Bus
	log       *logger.Logger
}

// New creates the settings service starting from threshold.
func New(threshold float64, backends BackendSwitch, val *validator.Validator, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		threshold: threshold,
		backends:  backends,
		val:       val,
		eventBus:  eventBus,
		log:       log,
	}
}

// QualificationThreshold returns the current threshold.
func (s *Service) QualificationThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

// Get returns a snapshot of the settings.
func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Update applies req atomically: either every field changes or none does.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (Settings, error) {
	if req.QualificationThreshold != nil && (math.IsNaN(*req.QualificationThreshold) || math.IsInf(*req.QualificationThreshold, 0)) {
		return Settings{}, validationError("qualificationThreshold must be a finite number", nil)
	}
	if err := s.val.Struct(req); err != nil {
		return Settings{}, validationError(validator.Describe(err), validator.Fields(err))
	}

	s.mu.Lock()
	if req.ProposalBackend != nil {
		kind, err := proposals.ParseBackendKind(*req.ProposalBackend)
		if err == nil {
			err = s.backends.Use(kind)
		}
		if err != nil {
			s.mu.Unlock()
			return Settings{}, apperr.Wrap(apperr.KindUnavailable, "proposal backend "+*req.ProposalBackend+" is not available", err)
		}
	}
	if req.QualificationThreshold != nil {
		s.threshold = *req.QualificationThreshold
	}
	current := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("settings updated", "qualificationThreshold", current.QualificationThreshold, "proposalBackend", current.ProposalBackend)
	if s.eventBus != nil {
		if err := s.eventBus.PublishSync(ctx, events.SettingsUpdated{
			BaseEvent:              events.NewBaseEvent(),
			QualificationThreshold: current.QualificationThreshold,
			ProposalBackend:        current.ProposalBackend,
		}); err != nil {
			s.log.Error("event handler failed", "event", "settings.updated", "error", err)
		}
	}
	return current, nil
}

func (s *Service) snapshotLocked() Settings {
	return Settings{
		QualificationThreshold: s.threshold,
		ProposalBackend:        string(s.backends.Active()),
	}
}

func validationError(message string, details interface{}) error {
	err := apperr.Wrap(apperr.KindValidation, message, ErrValidation)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}
