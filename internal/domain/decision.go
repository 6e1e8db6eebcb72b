package domain

import (
	"context"
	"time"
)

// DecisionStatus is the allocation state of an entrant in an event's lottery.
type DecisionStatus string

// Decision states. PENDING and INVITED are the only non-terminal states;
// ACCEPTED, DECLINED, LOST and CANCELLED are terminal.
const (
	DecisionPending   DecisionStatus = "PENDING"
	DecisionInvited   DecisionStatus = "INVITED"
	DecisionAccepted  DecisionStatus = "ACCEPTED"
	DecisionDeclined  DecisionStatus = "DECLINED"
	DecisionLost      DecisionStatus = "LOST"
	DecisionCancelled DecisionStatus = "CANCELLED"
)

// Terminal reports whether no further engine-driven transition may touch a
// decision in this status.
func (s DecisionStatus) Terminal() bool {
	switch s {
	case DecisionAccepted, DecisionDeclined, DecisionLost, DecisionCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal edge of the
// decision state machine.
func (s DecisionStatus) CanTransition(next DecisionStatus) bool {
	switch s {
	case DecisionPending:
		return next == DecisionInvited || next == DecisionLost || next == DecisionCancelled
	case DecisionInvited:
		return next == DecisionAccepted || next == DecisionDeclined || next == DecisionCancelled
	}
	return false
}

// RespondOutcome is an entrant's reply to an invitation.
type RespondOutcome string

const (
	RespondAccept  RespondOutcome = "accept"
	RespondDecline RespondOutcome = "decline"
)

// Decision is the single allocation-outcome record for an entrant in an
// event. Exactly one decision exists per (event, entrant); it is created
// alongside the entry on join and mutated only by the lottery engine.
// swagger:model Decision
type Decision struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	EntrantID string         `json:"entrant_id"`
	EntryID   string         `json:"entry_id"`
	Status    DecisionStatus `json:"status"`
	UpdatedAt time.Time      `json:"updated_at"`
	// RespondedAt is set only on the transitions a human makes (accept or
	// decline); engine-driven transitions leave it nil.
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// DrawResult reports the outcome of a draw.
type DrawResult struct {
	WinnersCount int `json:"winners_count"`
	LosersCount  int `json:"losers_count"`
	// AlreadyDrawn is true when the event was DRAWN before the call and the
	// draw was an idempotent no-op.
	AlreadyDrawn bool       `json:"already_drawn"`
	Winners      []*Decision `json:"-"`
	Losers       []*Decision `json:"-"`
}

// DrawSelector splits the pending decisions of an event into winners and
// losers. Implementations must be pure: the repository calls it inside the
// draw transaction with the locked PENDING set.
type DrawSelector func(pending []*Decision) (winners, losers []*Decision)

// DecisionRepository defines storage operations for decisions. All methods
// that mutate state are single-transaction and compare state before writing.
type DecisionRepository interface {
	GetByID(ctx context.Context, id string) (*Decision, error)
	GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*Decision, error)
	ListByEventAndStatus(ctx context.Context, eventID string, status DecisionStatus) ([]*Decision, error)
	// ListByEntrantID returns an entrant's decisions across events, newest
	// first. This is the query that replaces keeping a registered-event-id
	// list on the entrant record.
	ListByEntrantID(ctx context.Context, entrantID string) ([]*Decision, error)

	// RunDraw executes the draw commit for the event in one transaction: it
	// locks the event row, returns an AlreadyDrawn result if the event status
	// is DRAWN, loads the PENDING decisions, applies sel, writes winners to
	// INVITED and losers to LOST, stamps invited_at on winning entries, and
	// moves the event to DRAWN. Either every decision in the batch
	// transitions or none do.
	RunDraw(ctx context.Context, eventID string, sel DrawSelector, now time.Time) (*DrawResult, error)

	// PromoteOldestPending promotes up to count PENDING decisions to INVITED
	// in one transaction, ordered by the entry's join_timestamp ascending.
	// Promoting fewer than count because the pool ran dry is not an error.
	PromoteOldestPending(ctx context.Context, eventID string, count int, now time.Time) ([]*Decision, error)

	// UpdateStatusIf performs a compare-and-set from one status to another.
	// It returns false with no mutation when the decision is not in from.
	UpdateStatusIf(ctx context.Context, id string, from, to DecisionStatus, respondedAt *time.Time, now time.Time) (bool, error)

	// CancelOpen moves every PENDING or INVITED decision of the event to
	// CANCELLED in one transaction and returns the affected decisions.
	CancelOpen(ctx context.Context, eventID string, now time.Time) ([]*Decision, error)

	// ListExpiredInvites returns INVITED decisions whose entry was invited
	// before the cutoff.
	ListExpiredInvites(ctx context.Context, cutoff time.Time) ([]*Decision, error)
}

// LotteryService is the decision engine: it owns every state transition a
// decision can make.
type LotteryService interface {
	// Draw randomly promotes at most the event's configured number of winners
	// from PENDING to INVITED and moves the rest to LOST, atomically.
	// A second draw of the same event is an idempotent no-op.
	Draw(ctx context.Context, eventID, callerID string) (*DrawResult, error)
	// Respond applies an entrant's accept or decline to an INVITED decision.
	// A decline schedules exactly one replacement promotion.
	Respond(ctx context.Context, eventID, entrantID, decisionID string, outcome RespondOutcome) (*Decision, error)
	// PromoteReplacements promotes up to count PENDING decisions in
	// join-timestamp order. Partial promotion is reported, not an error.
	PromoteReplacements(ctx context.Context, eventID string, count int) ([]*Decision, error)
	// CancelEvent cancels every open decision and completes the event.
	CancelEvent(ctx context.Context, eventID, callerID string) error
	// ExpireInvitesBefore declines INVITED decisions invited before cutoff
	// and promotes one replacement per expiry. Used by the sweeper.
	ExpireInvitesBefore(ctx context.Context, cutoff time.Time) (int, error)
}
