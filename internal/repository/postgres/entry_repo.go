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

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type entryRepository struct {
	DB *sql.DB
}

func NewEntryRepository(db *sql.DB) domain.EntryRepository {
	return &entryRepository{
		DB: db,
	}
}

// Join creates the waiting-list entry and its PENDING decision in one
// transaction. The event row is locked first so that concurrent joins for the
// same event see a consistent head count against max_entrants; the composite
// unique key on (event_id, entrant_id) turns a duplicate join into
// ErrAlreadyJoined instead of a second row.
func (r *entryRepository) Join(ctx context.Context, entry *domain.WaitingListEntry, decisionID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT status, registration_start, registration_end, max_entrants
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	var status string
	var regStart, regEnd time.Time
	var maxEntrants sql.NullInt64
	if err = tx.QueryRowContext(ctx, lockQuery, entry.EventID).Scan(&status, &regStart, &regEnd, &maxEntrants); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	ev := &domain.Event{
		Status:            domain.EventStatus(status),
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
	}
	if !ev.RegistrationOpenAt(entry.JoinTimestamp) {
		return domain.ErrRegistrationClosed
	}

	if maxEntrants.Valid {
		var count int
		countQuery := `SELECT COUNT(*) FROM waiting_list_entries WHERE event_id = $1`
		if err = tx.QueryRowContext(ctx, countQuery, entry.EventID).Scan(&count); err != nil {
			return fmt.Errorf("count entries: %w", err)
		}
		if int64(count) >= maxEntrants.Int64 {
			return domain.ErrEventFull
		}
	}

	entryQuery := `
		INSERT INTO waiting_list_entries (id, event_id, entrant_id, join_timestamp, join_lat, join_lng)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var lat, lng sql.NullFloat64
	if entry.JoinLocation != nil {
		lat = sql.NullFloat64{Float64: entry.JoinLocation.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: entry.JoinLocation.Lng, Valid: true}
	}
	if _, err = tx.ExecContext(ctx, entryQuery, entry.ID, entry.EventID, entry.EntrantID, entry.JoinTimestamp, lat, lng); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyJoined
		}
		return fmt.Errorf("insert entry: %w", err)
	}

	decisionQuery := `
		INSERT INTO decisions (id, event_id, entrant_id, entry_id, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err = tx.ExecContext(ctx, decisionQuery, decisionID, entry.EventID, entry.EntrantID, entry.ID, string(domain.DecisionPending), entry.JoinTimestamp); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyJoined
		}
		return fmt.Errorf("insert decision: %w", err)
	}

	return tx.Commit()
}

// Leave removes the entry and its decision together. Only a PENDING decision
// may leave; anything later in the lottery must go through respond.
func (r *entryRepository) Leave(ctx context.Context, eventID, entrantID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status string
	stateQuery := `
		SELECT status FROM decisions
		WHERE event_id = $1 AND entrant_id = $2
		FOR UPDATE
	`
	if err = tx.QueryRowContext(ctx, stateQuery, eventID, entrantID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock decision: %w", err)
	}
	if domain.DecisionStatus(status) != domain.DecisionPending {
		return domain.ErrInvalidTransition
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM decisions WHERE event_id = $1 AND entrant_id = $2`, eventID, entrantID); err != nil {
		return fmt.Errorf("delete decision: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM waiting_list_entries WHERE event_id = $1 AND entrant_id = $2`, eventID, entrantID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	return tx.Commit()
}

func (r *entryRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.WaitingListEntry, error) {
	query := `
		SELECT id, event_id, entrant_id, join_timestamp, invited_at, join_lat, join_lng
		FROM waiting_list_entries
		WHERE event_id = $1
		ORDER BY join_timestamp ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.WaitingListEntry, 0)
	for rows.Next() {
		e := &domain.WaitingListEntry{}
		var invitedAt sql.NullTime
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.EventID, &e.EntrantID, &e.JoinTimestamp, &invitedAt, &lat, &lng); err != nil {
			return nil, err
		}
		if invitedAt.Valid {
			e.InvitedAt = &invitedAt.Time
		}
		if lat.Valid && lng.Valid {
			e.JoinLocation = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *entryRepository) Exists(ctx context.Context, eventID, entrantID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM waiting_list_entries WHERE event_id = $1 AND entrant_id = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, entrantID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
