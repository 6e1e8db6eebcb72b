package domain

import (
	"context"
	"time"
)

// GeoPoint is an optional join location captured by the caller.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WaitingListEntry is the membership record for an entrant in an event's
// waiting list. At most one entry exists per (event, entrant).
// swagger:model WaitingListEntry
type WaitingListEntry struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	EntrantID     string     `json:"entrant_id"`
	JoinTimestamp time.Time  `json:"join_timestamp"`
	InvitedAt     *time.Time `json:"invited_at,omitempty"`
	JoinLocation  *GeoPoint  `json:"join_location,omitempty"`
}

// JoinMeta carries optional metadata captured at join time.
type JoinMeta struct {
	Location *GeoPoint
}

// EntryRepository defines storage operations for waiting-list entries.
// Join must create the entry and its PENDING decision in a single atomic
// write keyed on (event, entrant); a duplicate returns ErrAlreadyJoined.
type EntryRepository interface {
	// Join atomically creates an entry and its PENDING decision. It enforces
	// the event's registration state and max-entrants cap under the same
	// lock that serializes concurrent joins.
	Join(ctx context.Context, entry *WaitingListEntry, decisionID string) error
	// Leave deletes the entry and its decision in one transaction. It fails
	// with ErrInvalidTransition unless the decision is still PENDING.
	Leave(ctx context.Context, eventID, entrantID string) error
	ListByEventID(ctx context.Context, eventID string) ([]*WaitingListEntry, error)
	Exists(ctx context.Context, eventID, entrantID string) (bool, error)
}

// WaitlistService defines entrant-facing waiting-list operations.
type WaitlistService interface {
	// Join adds the entrant to the event's waiting list. Returns
	// ErrAlreadyJoined if an entry already exists; callers should treat that
	// as success-equivalent.
	Join(ctx context.Context, eventID, entrantID string, meta JoinMeta) (*WaitingListEntry, error)
	Leave(ctx context.Context, eventID, entrantID string) error
	List(ctx context.Context, eventID string) ([]*WaitingListEntry, error)
}
