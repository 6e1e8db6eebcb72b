package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventlottery/internal/domain"
)

type decisionRepository struct {
	DB *sql.DB
}

func NewDecisionRepository(db *sql.DB) domain.DecisionRepository {
	return &decisionRepository{
		DB: db,
	}
}

const decisionColumns = `id, event_id, entrant_id, entry_id, status, updated_at, responded_at`

func scanDecision(row interface{ Scan(...any) error }) (*domain.Decision, error) {
	d := &domain.Decision{}
	var status string
	var respondedAt sql.NullTime
	if err := row.Scan(&d.ID, &d.EventID, &d.EntrantID, &d.EntryID, &status, &d.UpdatedAt, &respondedAt); err != nil {
		return nil, err
	}
	d.Status = domain.DecisionStatus(status)
	if respondedAt.Valid {
		d.RespondedAt = &respondedAt.Time
	}
	return d, nil
}

func (r *decisionRepository) GetByID(ctx context.Context, id string) (*domain.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE id = $1`
	d, err := scanDecision(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *decisionRepository) GetByEventAndEntrant(ctx context.Context, eventID, entrantID string) (*domain.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE event_id = $1 AND entrant_id = $2`
	d, err := scanDecision(r.DB.QueryRowContext(ctx, query, eventID, entrantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *decisionRepository) ListByEventAndStatus(ctx context.Context, eventID string, status domain.DecisionStatus) ([]*domain.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE event_id = $1 AND status = $2 ORDER BY updated_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, eventID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func (r *decisionRepository) ListByEntrantID(ctx context.Context, entrantID string) ([]*domain.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE entrant_id = $1 ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, entrantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func collectDecisions(rows *sql.Rows) ([]*domain.Decision, error) {
	decisions := make([]*domain.Decision, 0)
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// RunDraw commits a draw as a single transaction. The event row lock
// serializes concurrent draws of the same event; a retry after a completed
// draw observes status DRAWN and returns an AlreadyDrawn no-op result. Any
// status other than CLOSED or DRAWN rejects the draw outright.
func (r *decisionRepository) RunDraw(ctx context.Context, eventID string, sel domain.DrawSelector, now time.Time) (*domain.DrawResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status string
	if err = tx.QueryRowContext(ctx, `SELECT status FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	switch domain.EventStatus(status) {
	case domain.EventDrawn:
		return &domain.DrawResult{AlreadyDrawn: true}, nil
	case domain.EventClosed:
		// The only state a draw may start from: registration is over and the
		// pending set is final.
	default:
		return nil, domain.ErrInvalidTransition
	}

	pendingQuery := `
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE event_id = $1 AND status = $2
		FOR UPDATE
	`
	rows, err := tx.QueryContext(ctx, pendingQuery, eventID, string(domain.DecisionPending))
	if err != nil {
		return nil, fmt.Errorf("select pending: %w", err)
	}
	pending, err := collectDecisions(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan pending: %w", err)
	}
	if len(pending) == 0 {
		return nil, domain.ErrNothingToDraw
	}

	winners, losers := sel(pending)

	if len(winners) > 0 {
		winnerIDs := make([]string, 0, len(winners))
		entryIDs := make([]string, 0, len(winners))
		for _, d := range winners {
			winnerIDs = append(winnerIDs, d.ID)
			entryIDs = append(entryIDs, d.EntryID)
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE decisions SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
			string(domain.DecisionInvited), now, pq.Array(winnerIDs),
		); err != nil {
			return nil, fmt.Errorf("invite winners: %w", err)
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE waiting_list_entries SET invited_at = $1 WHERE id = ANY($2)`,
			now, pq.Array(entryIDs),
		); err != nil {
			return nil, fmt.Errorf("stamp invited_at: %w", err)
		}
	}
	if len(losers) > 0 {
		loserIDs := make([]string, 0, len(losers))
		for _, d := range losers {
			loserIDs = append(loserIDs, d.ID)
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE decisions SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
			string(domain.DecisionLost), now, pq.Array(loserIDs),
		); err != nil {
			return nil, fmt.Errorf("mark losers: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`,
		string(domain.EventDrawn), now, eventID,
	); err != nil {
		return nil, fmt.Errorf("mark event drawn: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit draw: %w", err)
	}

	for _, d := range winners {
		d.Status = domain.DecisionInvited
		d.UpdatedAt = now
	}
	for _, d := range losers {
		d.Status = domain.DecisionLost
		d.UpdatedAt = now
	}
	return &domain.DrawResult{
		WinnersCount: len(winners),
		LosersCount:  len(losers),
		Winners:      winners,
		Losers:       losers,
	}, nil
}

// PromoteOldestPending promotes up to count PENDING decisions in
// join-timestamp order. Replacement is deliberately not random: it preserves
// queue fairness for entrants who did not win the original draw. SKIP LOCKED
// keeps racing promotions (two declines, or a decline racing the expiry
// sweeper) from contending for the same row: without it the loser of the race
// would block, have its locked row discarded on recheck, and come back short
// even though older PENDING rows remain.
func (r *decisionRepository) PromoteOldestPending(ctx context.Context, eventID string, count int, now time.Time) ([]*domain.Decision, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	selectQuery := `
		SELECT d.id, d.event_id, d.entrant_id, d.entry_id, d.status, d.updated_at, d.responded_at
		FROM decisions d
		JOIN waiting_list_entries e ON e.id = d.entry_id
		WHERE d.event_id = $1 AND d.status = $2
		ORDER BY e.join_timestamp ASC
		LIMIT $3
		FOR UPDATE OF d SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, selectQuery, eventID, string(domain.DecisionPending), count)
	if err != nil {
		return nil, fmt.Errorf("select oldest pending: %w", err)
	}
	promoted, err := collectDecisions(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan pending: %w", err)
	}
	if len(promoted) == 0 {
		return []*domain.Decision{}, tx.Commit()
	}

	ids := make([]string, 0, len(promoted))
	entryIDs := make([]string, 0, len(promoted))
	for _, d := range promoted {
		ids = append(ids, d.ID)
		entryIDs = append(entryIDs, d.EntryID)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE decisions SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
		string(domain.DecisionInvited), now, pq.Array(ids),
	); err != nil {
		return nil, fmt.Errorf("promote decisions: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE waiting_list_entries SET invited_at = $1 WHERE id = ANY($2)`,
		now, pq.Array(entryIDs),
	); err != nil {
		return nil, fmt.Errorf("stamp invited_at: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit promotion: %w", err)
	}

	for _, d := range promoted {
		d.Status = domain.DecisionInvited
		d.UpdatedAt = now
	}
	return promoted, nil
}

// UpdateStatusIf is the single-state compare-and-set every respond goes
// through: the status predicate is part of the UPDATE itself, so a decision
// is never read and written outside one guarded statement.
func (r *decisionRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.DecisionStatus, respondedAt *time.Time, now time.Time) (bool, error) {
	query := `
		UPDATE decisions
		SET status = $1, updated_at = $2, responded_at = $3
		WHERE id = $4 AND status = $5
	`
	var responded sql.NullTime
	if respondedAt != nil {
		responded = sql.NullTime{Time: *respondedAt, Valid: true}
	}
	result, err := r.DB.ExecContext(ctx, query, string(to), now, responded, id, string(from))
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *decisionRepository) CancelOpen(ctx context.Context, eventID string, now time.Time) ([]*domain.Decision, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	selectQuery := `
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE event_id = $1 AND status = ANY($2)
		FOR UPDATE
	`
	open := []string{string(domain.DecisionPending), string(domain.DecisionInvited)}
	rows, err := tx.QueryContext(ctx, selectQuery, eventID, pq.Array(open))
	if err != nil {
		return nil, fmt.Errorf("select open decisions: %w", err)
	}
	cancelled, err := collectDecisions(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan decisions: %w", err)
	}
	if len(cancelled) == 0 {
		return []*domain.Decision{}, tx.Commit()
	}

	ids := make([]string, 0, len(cancelled))
	for _, d := range cancelled {
		ids = append(ids, d.ID)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE decisions SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
		string(domain.DecisionCancelled), now, pq.Array(ids),
	); err != nil {
		return nil, fmt.Errorf("cancel decisions: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}

	for _, d := range cancelled {
		d.Status = domain.DecisionCancelled
		d.UpdatedAt = now
	}
	return cancelled, nil
}

func (r *decisionRepository) ListExpiredInvites(ctx context.Context, cutoff time.Time) ([]*domain.Decision, error) {
	query := `
		SELECT d.id, d.event_id, d.entrant_id, d.entry_id, d.status, d.updated_at, d.responded_at
		FROM decisions d
		JOIN waiting_list_entries e ON e.id = d.entry_id
		WHERE d.status = $1 AND e.invited_at IS NOT NULL AND e.invited_at < $2
	`
	rows, err := r.DB.QueryContext(ctx, query, string(domain.DecisionInvited), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDecisions(rows)
}
