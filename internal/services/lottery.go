package services

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"eventlottery/internal/domain"
)

// NewCryptoSeededRand returns a PCG generator seeded from the operating
// system's entropy source, so production draws are not predictable. Tests
// pass their own fixed-seed generator instead.
func NewCryptoSeededRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to time
		// rather than panicking in the service constructor.
		binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

type lotteryService struct {
	eventRepo    domain.EventRepository
	decisionRepo domain.DecisionRepository
	dispatcher   domain.NotificationService
	rng          *rand.Rand
	logger       *slog.Logger
	notifyLosers bool
	now          func() time.Time
}

// NewLotteryService creates the decision engine. The rng drives the draw
// permutation and must produce an unbiased ordering; use NewCryptoSeededRand
// in production and a fixed-seed generator in tests.
func NewLotteryService(
	eventRepo domain.EventRepository,
	decisionRepo domain.DecisionRepository,
	dispatcher domain.NotificationService,
	rng *rand.Rand,
	logger *slog.Logger,
) domain.LotteryService {
	return &lotteryService{
		eventRepo:    eventRepo,
		decisionRepo: decisionRepo,
		dispatcher:   dispatcher,
		rng:          rng,
		logger:       logger,
		notifyLosers: true,
		now:          time.Now,
	}
}

// selector returns the draw split: a uniform shuffle of the pending set, with
// the first min(numberOfWinners, len) entries winning.
func (s *lotteryService) selector(numberOfWinners int) domain.DrawSelector {
	return func(pending []*domain.Decision) (winners, losers []*domain.Decision) {
		shuffled := make([]*domain.Decision, len(pending))
		copy(shuffled, pending)
		s.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		n := numberOfWinners
		if n > len(shuffled) {
			n = len(shuffled)
		}
		return shuffled[:n], shuffled[n:]
	}
}

func (s *lotteryService) Draw(ctx context.Context, eventID, callerID string) (*domain.DrawResult, error) {
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
	if event.NumberOfWinners <= 0 {
		return nil, domain.ErrInvalidConfiguration
	}

	result, err := s.decisionRepo.RunDraw(ctx, eventID, s.selector(event.NumberOfWinners), s.now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNothingToDraw),
			errors.Is(err, domain.ErrInvalidTransition),
			errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("run draw: %w", err)
	}
	if result.AlreadyDrawn {
		return result, nil
	}

	// The draw is committed; dispatch failures are reported, never rolled
	// back into the transition.
	s.dispatch(ctx, event, result.Winners, domain.NotificationInvited)
	if s.notifyLosers {
		s.dispatch(ctx, event, result.Losers, domain.NotificationLost)
	}
	return result, nil
}

func (s *lotteryService) Respond(ctx context.Context, eventID, entrantID, decisionID string, outcome domain.RespondOutcome) (*domain.Decision, error) {
	decision, err := s.decisionRepo.GetByID(ctx, decisionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get decision: %w", err)
	}
	if decision.EventID != eventID || decision.EntrantID != entrantID {
		return nil, domain.ErrInvalidTransition
	}

	var to domain.DecisionStatus
	switch outcome {
	case domain.RespondAccept:
		to = domain.DecisionAccepted
	case domain.RespondDecline:
		to = domain.DecisionDeclined
	default:
		return nil, domain.ErrInvalidInput
	}

	now := s.now()
	ok, err := s.decisionRepo.UpdateStatusIf(ctx, decisionID, domain.DecisionInvited, to, &now, now)
	if err != nil {
		return nil, fmt.Errorf("update decision: %w", err)
	}
	if !ok {
		// Not INVITED anymore (or never was): no mutation was applied.
		return nil, domain.ErrInvalidTransition
	}

	decision.Status = to
	decision.UpdatedAt = now
	decision.RespondedAt = &now

	if to == domain.DecisionDeclined {
		// A decline frees exactly one slot.
		if _, err := s.PromoteReplacements(ctx, eventID, 1); err != nil {
			s.logger.Error("replacement promotion after decline failed", "event_id", eventID, "err", err)
		}
	}
	return decision, nil
}

func (s *lotteryService) PromoteReplacements(ctx context.Context, eventID string, count int) ([]*domain.Decision, error) {
	if count <= 0 {
		return []*domain.Decision{}, nil
	}
	promoted, err := s.decisionRepo.PromoteOldestPending(ctx, eventID, count, s.now())
	if err != nil {
		return nil, fmt.Errorf("promote replacements: %w", err)
	}
	if len(promoted) == 0 {
		return promoted, nil
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		s.logger.Error("load event for replacement dispatch failed", "event_id", eventID, "err", err)
		return promoted, nil
	}
	s.dispatch(ctx, event, promoted, domain.NotificationReplaced)
	return promoted, nil
}

func (s *lotteryService) CancelEvent(ctx context.Context, eventID, callerID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if callerID != "" && event.OwnerID != callerID {
		return domain.ErrForbidden
	}

	now := s.now()
	cancelled, err := s.decisionRepo.CancelOpen(ctx, eventID, now)
	if err != nil {
		return fmt.Errorf("cancel decisions: %w", err)
	}
	if err := s.eventRepo.UpdateStatus(ctx, eventID, domain.EventCompleted, now); err != nil {
		return fmt.Errorf("complete event: %w", err)
	}

	s.dispatch(ctx, event, cancelled, domain.NotificationCancelled)
	return nil
}

// ExpireInvitesBefore declines invitations older than cutoff and promotes one
// replacement per expiry. responded_at stays NULL: only a human response sets
// it. The per-decision compare-and-set means an entrant racing the sweeper
// with a real response wins cleanly on one side or the other.
func (s *lotteryService) ExpireInvitesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := s.decisionRepo.ListExpiredInvites(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expired invites: %w", err)
	}

	count := 0
	for _, d := range expired {
		ok, err := s.decisionRepo.UpdateStatusIf(ctx, d.ID, domain.DecisionInvited, domain.DecisionDeclined, nil, s.now())
		if err != nil {
			s.logger.Error("expire invite failed", "decision_id", d.ID, "err", err)
			continue
		}
		if !ok {
			// The entrant responded between the list and the CAS.
			continue
		}
		count++
		if _, err := s.PromoteReplacements(ctx, d.EventID, 1); err != nil {
			s.logger.Error("replacement promotion after expiry failed", "event_id", d.EventID, "err", err)
		}
	}
	return count, nil
}

func (s *lotteryService) dispatch(ctx context.Context, event *domain.Event, decisions []*domain.Decision, typ domain.NotificationType) {
	if len(decisions) == 0 {
		return
	}
	recipients := make([]string, 0, len(decisions))
	for _, d := range decisions {
		recipients = append(recipients, d.EntrantID)
	}
	title, message := notificationCopy(typ, event.Name)
	if _, err := s.dispatcher.NotifyMany(ctx, recipients, event.ID, typ, title, message); err != nil {
		s.logger.Warn("notification dispatch incomplete", "event_id", event.ID, "type", string(typ), "err", err)
	}
}

func notificationCopy(typ domain.NotificationType, eventName string) (title, message string) {
	switch typ {
	case domain.NotificationInvited:
		return "You won the draw", fmt.Sprintf("You were selected for %s. Accept or decline your invitation.", eventName)
	case domain.NotificationReplaced:
		return "A spot opened up", fmt.Sprintf("A spot for %s is now yours. Accept or decline your invitation.", eventName)
	case domain.NotificationLost:
		return "Draw results", fmt.Sprintf("You were not selected for %s this time.", eventName)
	case domain.NotificationCancelled:
		return "Event cancelled", fmt.Sprintf("%s was cancelled by the organizer.", eventName)
	}
	return string(typ), eventName
}
