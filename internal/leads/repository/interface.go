package repository

import (
	"context"

	"lead_automation_backend/internal/leads/domain"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	Get(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Add(ctx context.Context, lead Lead, policy DuplicatePolicy) (Lead, bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (Lead, error)
}

// LeadMutator applies an atomic compare-and-swap change to a single lead.
type LeadMutator interface {
	Apply(ctx context.Context, id string, expected domain.Status, fn func(*Lead) error) (Lead, error)
}

// LeadRepository is the full store contract used by the leads module.
type LeadRepository interface {
	LeadReader
	LeadWriter
	LeadMutator
}

// Snapshotter persists and restores the full ordered lead collection.
type Snapshotter interface {
	Load(ctx context.Context) ([]Lead, error)
	Save(ctx context.Context, leads []Lead) error
}

// Compile-time check that Store implements LeadRepository.
var _ LeadRepository = (*Store)(nil)
