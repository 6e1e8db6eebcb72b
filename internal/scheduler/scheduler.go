package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// inviteExpirer is the slice of the lottery service the sweeper needs.
type inviteExpirer interface {
	ExpireInvitesBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler periodically expires invitations whose response window elapsed,
// freeing their slots for replacement promotion.
type Scheduler struct {
	lottery        inviteExpirer
	interval       time.Duration
	responseWindow time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func New(lottery inviteExpirer, interval, responseWindow time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		lottery:        lottery,
		interval:       interval,
		responseWindow: responseWindow,
		logger:         logger,
		now:            time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled. A zero response window
// means expiry is disabled and Start returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if s.responseWindow <= 0 {
		s.logger.Info("invite expiry disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("invite expiry sweeper started", "interval", s.interval, "response_window", s.responseWindow)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("invite expiry sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	cutoff := s.now().Add(-s.responseWindow)
	expired, err := s.lottery.ExpireInvitesBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("invite expiry sweep failed", "err", err)
		return
	}
	if expired > 0 {
		s.logger.Info("expired invites", "count", expired)
	}
}
