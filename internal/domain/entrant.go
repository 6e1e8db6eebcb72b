package domain

import (
	"context"
	"time"
)

// Entrant is the engine's projection of a person owned by the external
// identity service: the id it references, a contact address for the
// notification transport, and the notification opt-out flag.
// swagger:model Entrant
type Entrant struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// EntrantRepository defines storage for the entrant projection.
type EntrantRepository interface {
	GetByID(ctx context.Context, id string) (*Entrant, error)
	// Upsert creates or refreshes the projection row for an entrant.
	Upsert(ctx context.Context, entrant *Entrant) error
	SetNotificationsEnabled(ctx context.Context, id string, enabled bool, updatedAt time.Time) error
}

// TokenVerifier verifies a bearer token minted by the identity service and
// returns the authenticated entrant ID.
type TokenVerifier interface {
	Verify(token string) (entrantID string, err error)
}

// TokenIssuer issues tokens for an entrant. Production tokens come from the
// identity service; this port exists for local development and tests.
type TokenIssuer interface {
	Issue(entrantID string, expiry time.Duration) (string, error)
}
