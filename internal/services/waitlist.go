package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventlottery/internal/domain"
)

type waitlistService struct {
	eventRepo domain.EventRepository
	entryRepo domain.EntryRepository
	now       func() time.Time
}

// NewWaitlistService creates a WaitlistService with the given repositories.
func NewWaitlistService(eventRepo domain.EventRepository, entryRepo domain.EntryRepository) domain.WaitlistService {
	return &waitlistService{
		eventRepo: eventRepo,
		entryRepo: entryRepo,
		now:       time.Now,
	}
}

func (s *waitlistService) Join(ctx context.Context, eventID, entrantID string, meta domain.JoinMeta) (*domain.WaitingListEntry, error) {
	if eventID == "" || entrantID == "" {
		return nil, domain.ErrInvalidInput
	}

	// Ensure the event exists before paying for the transactional path. The
	// repository re-checks status, window and capacity under the event lock;
	// this read is only for a friendlier not-found.
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	entry := &domain.WaitingListEntry{
		ID:            uuid.NewString(),
		EventID:       eventID,
		EntrantID:     entrantID,
		JoinTimestamp: s.now(),
		JoinLocation:  meta.Location,
	}
	decisionID := uuid.NewString()
	if err := s.entryRepo.Join(ctx, entry, decisionID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyJoined),
			errors.Is(err, domain.ErrRegistrationClosed),
			errors.Is(err, domain.ErrEventFull),
			errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("join waiting list: %w", err)
	}
	return entry, nil
}

func (s *waitlistService) Leave(ctx context.Context, eventID, entrantID string) error {
	if eventID == "" || entrantID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.entryRepo.Leave(ctx, eventID, entrantID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return err
		}
		return fmt.Errorf("leave waiting list: %w", err)
	}
	return nil
}

func (s *waitlistService) List(ctx context.Context, eventID string) ([]*domain.WaitingListEntry, error) {
	entries, err := s.entryRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if entries == nil {
		entries = []*domain.WaitingListEntry{}
	}
	return entries, nil
}
