// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"errors"
	"fmt"
)

// Status is the position of a lead in the qualification and call pipeline.
type Status string

const (
	StatusNew                 Status = "New"
	StatusQualified           Status = "Qualified"
	StatusUnqualified         Status = "Unqualified"
	StatusCallRequested       Status = "CallRequested"
	StatusNoAnswer            Status = "NoAnswer"
	StatusCallCompleted       Status = "CallCompleted"
	StatusProposalSent        Status = "ProposalSent"
	StatusNoProposalRequested Status = "NoProposalRequested"
)

// ErrInvalidTransition is returned when a status change is not a successor of
// the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions lists the direct successors of every status. Statuses with no
// successors are terminal.
var transitions = map[Status][]Status{
	StatusNew:                 {StatusQualified, StatusUnqualified},
	StatusQualified:           {StatusCallRequested},
	StatusUnqualified:         nil,
	StatusCallRequested:       {StatusNoAnswer, StatusCallCompleted},
	StatusNoAnswer:            nil,
	StatusCallCompleted:       {StatusProposalSent, StatusNoProposalRequested},
	StatusProposalSent:        nil,
	StatusNoProposalRequested: nil,
}

// rank orders statuses along the pipeline; a successor always has a higher rank.
var rank = map[Status]int{
	StatusNew:                 0,
	StatusQualified:           1,
	StatusUnqualified:         1,
	StatusCallRequested:       2,
	StatusNoAnswer:            3,
	StatusCallCompleted:       3,
	StatusProposalSent:        4,
	StatusNoProposalRequested: 4,
}

// AllStatuses returns every known status in pipeline order.
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusQualified,
		StatusUnqualified,
		StatusCallRequested,
		StatusNoAnswer,
		StatusCallCompleted,
		StatusProposalSent,
		StatusNoProposalRequested,
	}
}

// IsKnown reports whether s is part of the pipeline.
func (s Status) IsKnown() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Rank returns the pipeline depth of s, or -1 for unknown statuses.
func (s Status) Rank() int {
	r, ok := rank[s]
	if !ok {
		return -1
	}
	return r
}

// CanTransition reports whether to is a direct successor of from.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error wrapping ErrInvalidTransition when to
// is not a direct successor of from.
func ValidateTransition(from, to Status) error {
	if !to.IsKnown() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// HasReachedQualified reports whether s lies on the qualified branch, which is
// exactly the set of statuses that own a call request.
func HasReachedQualified(s Status) bool {
	switch s {
	case StatusQualified, StatusCallRequested, StatusNoAnswer, StatusCallCompleted,
		StatusProposalSent, StatusNoProposalRequested:
		return true
	default:
		return false
	}
}

// ParseStatus converts a raw value into a known Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsKnown() {
		return "", fmt.Errorf("unknown lead status %q", raw)
	}
	return s, nil
}

// Reachable reports whether to can be reached from from by one or more
// successive transitions.
func Reachable(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to || Reachable(next, to) {
			return true
		}
	}
	return false
}
