package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventlottery/internal/domain"
)

type eventService struct {
	eventRepo domain.EventRepository
	now       func() time.Time
}

// NewEventService creates an EventService with the given repository.
func NewEventService(eventRepo domain.EventRepository) domain.EventService {
	return &eventService{
		eventRepo: eventRepo,
		now:       time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	if event.OwnerID == "" {
		return fmt.Errorf("%w: event owner is required", domain.ErrInvalidInput)
	}
	if event.NumberOfWinners <= 0 {
		return fmt.Errorf("%w: number_of_winners must be positive", domain.ErrInvalidConfiguration)
	}
	if event.MaxEntrants != nil && *event.MaxEntrants < event.NumberOfWinners {
		return fmt.Errorf("%w: max_entrants below number_of_winners", domain.ErrInvalidConfiguration)
	}
	if !event.RegistrationEnd.After(event.RegistrationStart) {
		return fmt.Errorf("%w: registration window is empty", domain.ErrInvalidConfiguration)
	}

	now := s.now()
	event.Status = domain.EventDraft
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) OpenRegistration(ctx context.Context, eventID, callerID string) error {
	return s.moveStatus(ctx, eventID, callerID, domain.EventDraft, domain.EventOpen)
}

func (s *eventService) CloseRegistration(ctx context.Context, eventID, callerID string) error {
	return s.moveStatus(ctx, eventID, callerID, domain.EventOpen, domain.EventClosed)
}

func (s *eventService) moveStatus(ctx context.Context, eventID, callerID string, from, to domain.EventStatus) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID {
		return domain.ErrForbidden
	}
	if event.Status != from {
		return domain.ErrInvalidTransition
	}
	if err := s.eventRepo.UpdateStatus(ctx, eventID, to, s.now()); err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	return nil
}
