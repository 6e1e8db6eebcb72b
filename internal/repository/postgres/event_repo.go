package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventlottery/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, owner_id, status, number_of_winners, max_entrants, registration_start, registration_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var maxEntrants sql.NullInt64
	if e.MaxEntrants != nil {
		maxEntrants = sql.NullInt64{Int64: int64(*e.MaxEntrants), Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query,
		e.Name, e.OwnerID, string(e.Status), e.NumberOfWinners, maxEntrants,
		e.RegistrationStart, e.RegistrationEnd, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, owner_id, status, number_of_winners, max_entrants, registration_start, registration_end, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	var status string
	var maxEntrants sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.OwnerID, &status, &e.NumberOfWinners, &maxEntrants,
		&e.RegistrationStart, &e.RegistrationEnd, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	if maxEntrants.Valid {
		m := int(maxEntrants.Int64)
		e.MaxEntrants = &m
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT id, name, owner_id, status, number_of_winners, max_entrants, registration_start, registration_end, created_at, updated_at
		FROM events
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		var status string
		var maxEntrants sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &e.OwnerID, &status, &e.NumberOfWinners, &maxEntrants, &e.RegistrationStart, &e.RegistrationEnd, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = domain.EventStatus(status)
		if maxEntrants.Valid {
			m := int(maxEntrants.Int64)
			e.MaxEntrants = &m
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus, updatedAt time.Time) error {
	query := `UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.DB.ExecContext(ctx, query, string(status), updatedAt, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
