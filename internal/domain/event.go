package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

// Event lifecycle states. An event is immutable once DRAWN except for its
// status and administrative fields.
const (
	EventDraft     EventStatus = "DRAFT"
	EventOpen      EventStatus = "OPEN"
	EventClosed    EventStatus = "CLOSED"
	EventDrawn     EventStatus = "DRAWN"
	EventCompleted EventStatus = "COMPLETED"
)

// Event represents a capacity-limited event with a waiting-list lottery.
// swagger:model Event
type Event struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	OwnerID           string      `json:"owner_id"`
	Status            EventStatus `json:"status"`
	NumberOfWinners   int         `json:"number_of_winners"`
	MaxEntrants       *int        `json:"max_entrants,omitempty"`
	RegistrationStart time.Time   `json:"registration_start"`
	RegistrationEnd   time.Time   `json:"registration_end"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name, ownerID string, numberOfWinners int, maxEntrants *int, registrationStart, registrationEnd, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:              name,
		OwnerID:           ownerID,
		Status:            EventDraft,
		NumberOfWinners:   numberOfWinners,
		MaxEntrants:       maxEntrants,
		RegistrationStart: registrationStart,
		RegistrationEnd:   registrationEnd,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}

// RegistrationOpenAt reports whether the event accepts joins at t.
func (e *Event) RegistrationOpenAt(t time.Time) bool {
	if e.Status != EventOpen {
		return false
	}
	if t.Before(e.RegistrationStart) {
		return false
	}
	return !t.After(e.RegistrationEnd)
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateStatus(ctx context.Context, id string, status EventStatus, updatedAt time.Time) error
}

// EventService defines organizer-facing event operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	// OpenRegistration moves a DRAFT event to OPEN.
	OpenRegistration(ctx context.Context, eventID, callerID string) error
	// CloseRegistration moves an OPEN event to CLOSED.
	CloseRegistration(ctx context.Context, eventID, callerID string) error
}
