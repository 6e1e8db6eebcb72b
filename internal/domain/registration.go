package domain

import (
	"context"
	"time"
)

// RegistrationRow is one line of the read-side join of entries and decisions
// for an event.
// swagger:model RegistrationRow
type RegistrationRow struct {
	EntrantID      string         `json:"entrant_id"`
	DecisionStatus DecisionStatus `json:"decision_status,omitempty"`
	JoinTimestamp  *time.Time     `json:"join_timestamp,omitempty"`
	InvitedAt      *time.Time     `json:"invited_at,omitempty"`
	RespondedAt    *time.Time     `json:"responded_at,omitempty"`
	// OrphanEntry is true when the entry has no decision; OrphanDecision the
	// reverse. Either indicates the join was not applied atomically.
	OrphanEntry    bool `json:"orphan_entry,omitempty"`
	OrphanDecision bool `json:"orphan_decision,omitempty"`
}

// RegistrationReader reads the joined entry/decision rows for an event,
// including orphans on either side.
type RegistrationReader interface {
	RowsForEvent(ctx context.Context, eventID string) ([]*RegistrationRow, error)
}

// RegistrationsView is the aggregator result: rows plus integrity warnings.
type RegistrationsView struct {
	Rows     []*RegistrationRow `json:"rows"`
	Warnings []string           `json:"warnings,omitempty"`
}

// RegistrationService is the pure read-side aggregator over entries and
// decisions. It holds no state of its own.
type RegistrationService interface {
	// RegistrationsFor returns the event's registrations. Orphaned records
	// are surfaced as warnings, never silently dropped.
	RegistrationsFor(ctx context.Context, eventID, callerID string) (*RegistrationsView, error)
	// MyRegistrations returns the entrant's decisions across events,
	// newest first.
	MyRegistrations(ctx context.Context, entrantID string) ([]*Decision, error)
}
