package services

import (
	"context"
	"errors"
	"fmt"

	"eventlottery/internal/domain"
)

type registrationService struct {
	eventRepo    domain.EventRepository
	decisionRepo domain.DecisionRepository
	reader       domain.RegistrationReader
}

// NewRegistrationService creates the read-side aggregator over entries and
// decisions. It holds no state of its own.
func NewRegistrationService(eventRepo domain.EventRepository, decisionRepo domain.DecisionRepository, reader domain.RegistrationReader) domain.RegistrationService {
	return &registrationService{
		eventRepo:    eventRepo,
		decisionRepo: decisionRepo,
		reader:       reader,
	}
}

func (s *registrationService) RegistrationsFor(ctx context.Context, eventID, callerID string) (*domain.RegistrationsView, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if callerID != "" && event.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}

	rows, err := s.reader.RowsForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("read registrations: %w", err)
	}

	view := &domain.RegistrationsView{Rows: rows}
	// An entry without a decision (or the reverse) means the join pair was
	// not applied atomically. Surface it; never drop the row.
	for _, row := range rows {
		if row.OrphanEntry {
			view.Warnings = append(view.Warnings, fmt.Sprintf("entrant %s has a waiting-list entry but no decision", row.EntrantID))
		}
		if row.OrphanDecision {
			view.Warnings = append(view.Warnings, fmt.Sprintf("entrant %s has a decision but no waiting-list entry", row.EntrantID))
		}
	}
	return view, nil
}

func (s *registrationService) MyRegistrations(ctx context.Context, entrantID string) ([]*domain.Decision, error) {
	decisions, err := s.decisionRepo.ListByEntrantID(ctx, entrantID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if decisions == nil {
		decisions = []*domain.Decision{}
	}
	return decisions, nil
}
