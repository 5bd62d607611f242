package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"
)

var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrDuplicateLead = errors.New("lead already exists")
)

// DuplicatePolicy decides what Add does when the lead identity already exists.
type DuplicatePolicy int

const (
	// PolicyUpsert replaces contact fields and keeps pipeline state.
	PolicyUpsert DuplicatePolicy = iota
	// PolicyReject fails with ErrDuplicateLead.
	PolicyReject
)

// ParseDuplicatePolicy maps a config value onto a DuplicatePolicy.
func ParseDuplicatePolicy(raw string) DuplicatePolicy {
	if strings.EqualFold(strings.TrimSpace(raw), "reject") {
		return PolicyReject
	}
	return PolicyUpsert
}

// Lead is a prospective customer record.
type Lead struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Company        string        `json:"company"`
	UseCase        string        `json:"useCase"`
	Budget         float64       `json:"budget"`
	Phone          string        `json:"phone,omitempty"`
	Status         domain.Status `json:"status"`
	CallTranscript string        `json:"callTranscript,omitempty"`
	CallRequestID  string        `json:"callRequestId,omitempty"`
	ProposalRef    string        `json:"proposalRef,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	LastActionAt   time.Time     `json:"lastActionAt"`
}

// HasCallRequest reports whether a call request was recorded for the lead.
func (l Lead) HasCallRequest() bool {
	return l.CallRequestID != ""
}

// NormalizeID derives the stable lead identity from an email address.
func NormalizeID(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Store keeps leads in insertion order with an id index. All operations are
// serialized by a mutex; every committed mutation is followed by a
// best-effort snapshot save.
type Store struct {
	mu       sync.RWMutex
	leads    []Lead
	index    map[string]int
	snapshot Snapshotter
	log      *logger.Logger
	now      func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithSnapshot persists the collection after each mutation.
func WithSnapshot(s Snapshotter) Option {
	return func(st *Store) { st.snapshot = s }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// NewStore creates an empty store.
func NewStore(log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		index: make(map[string]int),
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collection with the snapshot contents.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.snapshot == nil {
		return 0, nil
	}
	leads, err := s.snapshot.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load lead snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.leads = s.leads[:0]
	s.index = make(map[string]int, len(leads))
	for _, lead := range leads {
		id := NormalizeID(lead.ID)
		if id == "" {
			id = NormalizeID(lead.Email)
		}
		if id == "" {
			continue
		}
		if _, dup := s.index[id]; dup {
			continue
		}
		lead.ID = id
		if !lead.Status.IsKnown() {
			lead.Status = domain.StatusNew
		}
		s.index[id] = len(s.leads)
		s.leads = append(s.leads, lead)
	}
	return len(s.leads), nil
}

// Add inserts a lead, or upserts it when the identity exists and policy allows.
// The boolean result reports whether a new record was created.
func (s *Store) Add(ctx context.Context, lead Lead, policy DuplicatePolicy) (Lead, bool, error) {
	id := NormalizeID(lead.Email)
	if id == "" {
		return Lead{}, false, apperr.Validation("email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if pos, ok := s.index[id]; ok {
		if policy == PolicyReject {
			return Lead{}, false, apperr.Wrap(apperr.KindConflict, "lead "+id+" already exists", ErrDuplicateLead)
		}
		existing := s.leads[pos]
		existing.Name = lead.Name
		existing.Email = strings.TrimSpace(lead.Email)
		existing.Company = lead.Company
		existing.UseCase = lead.UseCase
		existing.Budget = lead.Budget
		existing.Phone = lead.Phone
		existing.UpdatedAt = now
		existing.LastActionAt = now
		s.leads[pos] = existing
		s.persistLocked(ctx)
		return existing, false, nil
	}

	lead.ID = id
	lead.Email = strings.TrimSpace(lead.Email)
	lead.Status = domain.StatusNew
	lead.CallTranscript = ""
	lead.CallRequestID = ""
	lead.ProposalRef = ""
	lead.CreatedAt = now
	lead.UpdatedAt = now
	lead.LastActionAt = now

	s.index[id] = len(s.leads)
	s.leads = append(s.leads, lead)
	s.persistLocked(ctx)
	return lead, true, nil
}

// Get returns the lead with the given id.
func (s *Store) Get(_ context.Context, id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[NormalizeID(id)]
	if !ok {
		return Lead{}, notFound(id)
	}
	return s.leads[pos], nil
}

// List returns all leads in insertion order.
func (s *Store) List(_ context.Context) ([]Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}

// UpdateStatus moves a lead to a direct successor of its current status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[NormalizeID(id)]
	if !ok {
		return Lead{}, notFound(id)
	}
	lead := s.leads[pos]
	if err := domain.ValidateTransition(lead.Status, status); err != nil {
		return Lead{}, invalidTransition(err)
	}

	now := s.now()
	lead.Status = status
	lead.UpdatedAt = now
	lead.LastActionAt = now
	s.leads[pos] = lead
	s.persistLocked(ctx)
	return lead, nil
}

// Apply runs fn against a copy of the lead and commits the copy only when the
// stored status still equals expected and fn succeeds. A status change made by
// fn must be reachable from expected. Identity and CreatedAt cannot change, and
// a recorded call request can never be cleared or replaced.
func (s *Store) Apply(ctx context.Context, id string, expected domain.Status, fn func(*Lead) error) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[NormalizeID(id)]
	if !ok {
		return Lead{}, notFound(id)
	}
	current := s.leads[pos]
	if current.Status != expected {
		return Lead{}, invalidTransition(fmt.Errorf("%w: lead is %s, expected %s", domain.ErrInvalidTransition, current.Status, expected))
	}

	next := current
	if err := fn(&next); err != nil {
		return Lead{}, err
	}

	if next.Status != current.Status && !domain.Reachable(current.Status, next.Status) {
		return Lead{}, invalidTransition(fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, next.Status))
	}
	if current.HasCallRequest() && next.CallRequestID != current.CallRequestID {
		return Lead{}, apperr.Conflict("call request already recorded for lead " + current.ID)
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt

	now := s.now()
	next.UpdatedAt = now
	next.LastActionAt = now
	s.leads[pos] = next
	s.persistLocked(ctx)
	return next, nil
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.snapshot == nil {
		return
	}
	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	if err := s.snapshot.Save(ctx, out); err != nil && s.log != nil {
		s.log.DatabaseError("save lead snapshot", err)
	}
}

func notFound(id string) error {
	return apperr.Wrap(apperr.KindNotFound, "lead "+id+" not found", ErrLeadNotFound)
}

func invalidTransition(err error) error {
	return apperr.Wrap(apperr.KindConflict, err.Error(), err)
}
