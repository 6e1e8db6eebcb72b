package domain

import (
	"context"
	"time"
)

// NotificationType classifies a status-change message.
type NotificationType string

const (
	NotificationInvited   NotificationType = "INVITED"
	NotificationLost      NotificationType = "LOST"
	NotificationCancelled NotificationType = "CANCELLED"
	NotificationReplaced  NotificationType = "REPLACEMENT_INVITED"
)

// Notification is an append-only message record for an entrant. Only the
// read flag mutates after creation.
// swagger:model Notification
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	EventID     string           `json:"event_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Dispatch is the record handed to the transport collaborator for delivery.
type Dispatch struct {
	RecipientID string
	EventID     string
	Type        NotificationType
	Title       string
	Message     string
}

// DispatchOutcome is the per-recipient result of a notify call.
type DispatchOutcome string

const (
	DispatchSent       DispatchOutcome = "sent"
	DispatchSuppressed DispatchOutcome = "suppressed"
	DispatchFailed     DispatchOutcome = "failed"
)

// RecipientOutcome pairs a recipient with their dispatch outcome.
type RecipientOutcome struct {
	RecipientID string          `json:"recipient_id"`
	Outcome     DispatchOutcome `json:"outcome"`
	Err         error           `json:"-"`
}

// Messenger delivers a dispatch record to the entrant through the outbound
// transport (infrastructure port).
type Messenger interface {
	Deliver(ctx context.Context, recipient *Entrant, d Dispatch) error
}

// NotificationRepository defines storage operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipientID(ctx context.Context, recipientID string) ([]*Notification, error)
	// MarkRead sets read=true. Returns ErrNotFound when the notification does
	// not exist or belongs to another recipient.
	MarkRead(ctx context.Context, recipientID, notificationID string) error
}

// NotificationService is the dispatcher: it persists notifications for
// opted-in entrants and fans deliveries out to the transport.
type NotificationService interface {
	// Notify delivers one message. Opted-out recipients are suppressed
	// without a record being created.
	Notify(ctx context.Context, recipientID, eventID string, typ NotificationType, title, message string) (DispatchOutcome, error)
	// NotifyMany fans out independently per recipient with bounded
	// parallelism. One recipient's failure never blocks the others; the
	// returned error is ErrPartialDispatchFailure when any outcome failed.
	NotifyMany(ctx context.Context, recipientIDs []string, eventID string, typ NotificationType, title, message string) ([]RecipientOutcome, error)
	ListForRecipient(ctx context.Context, recipientID string) ([]*Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
}
