package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"eventlottery/internal/domain"
)

type notificationService struct {
	entrantRepo      domain.EntrantRepository
	notificationRepo domain.NotificationRepository
	messenger        domain.Messenger
	logger           *slog.Logger
	concurrency      int
	now              func() time.Time
}

// NewNotificationService creates the dispatcher. concurrency bounds the
// parallel deliveries of a fan-out to respect downstream rate limits.
func NewNotificationService(
	entrantRepo domain.EntrantRepository,
	notificationRepo domain.NotificationRepository,
	messenger domain.Messenger,
	logger *slog.Logger,
	concurrency int,
) domain.NotificationService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &notificationService{
		entrantRepo:      entrantRepo,
		notificationRepo: notificationRepo,
		messenger:        messenger,
		logger:           logger,
		concurrency:      concurrency,
		now:              time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, recipientID, eventID string, typ domain.NotificationType, title, message string) (domain.DispatchOutcome, error) {
	entrant, err := s.entrantRepo.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown projection rows are treated as opted in with no
			// deliverable address: the record is still written so the
			// in-app inbox stays complete.
			entrant = &domain.Entrant{ID: recipientID, NotificationsEnabled: true}
		} else {
			return domain.DispatchFailed, fmt.Errorf("get entrant: %w", err)
		}
	}
	if !entrant.NotificationsEnabled {
		// Opted out: no record is created at all.
		return domain.DispatchSuppressed, nil
	}

	n := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		EventID:     eventID,
		Type:        typ,
		Title:       title,
		Message:     message,
		CreatedAt:   s.now(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return domain.DispatchFailed, fmt.Errorf("create notification: %w", err)
	}

	d := domain.Dispatch{
		RecipientID: recipientID,
		EventID:     eventID,
		Type:        typ,
		Title:       title,
		Message:     message,
	}
	if err := s.messenger.Deliver(ctx, entrant, d); err != nil {
		// The record is persisted; transport delivery is retryable on its own.
		s.logger.Warn("transport delivery failed", "recipient_id", recipientID, "type", string(typ), "err", err)
		return domain.DispatchFailed, fmt.Errorf("deliver notification: %w", err)
	}
	return domain.DispatchSent, nil
}

// NotifyMany fans out independently per recipient with bounded parallelism.
// Each recipient gets their own outcome; a failure never blocks the rest.
func (s *notificationService) NotifyMany(ctx context.Context, recipientIDs []string, eventID string, typ domain.NotificationType, title, message string) ([]domain.RecipientOutcome, error) {
	outcomes := make([]domain.RecipientOutcome, len(recipientIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, recipientID := range recipientIDs {
		g.Go(func() error {
			outcome, err := s.Notify(gctx, recipientID, eventID, typ, title, message)
			outcomes[i] = domain.RecipientOutcome{
				RecipientID: recipientID,
				Outcome:     outcome,
				Err:         err,
			}
			// Failures are collected per recipient, never propagated, so the
			// group keeps dispatching to the others.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Outcome == domain.DispatchFailed {
			failed++
		}
	}
	if failed > 0 {
		return outcomes, fmt.Errorf("%w: %d of %d recipients failed", domain.ErrPartialDispatchFailure, failed, len(recipientIDs))
	}
	return outcomes, nil
}

func (s *notificationService) ListForRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	notifications, err := s.notificationRepo.ListByRecipientID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, recipientID, notificationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
