package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventlottery/internal/domain"
)

type entrantRepository struct {
	DB *sql.DB
}

func NewEntrantRepository(db *sql.DB) domain.EntrantRepository {
	return &entrantRepository{
		DB: db,
	}
}

func (r *entrantRepository) GetByID(ctx context.Context, id string) (*domain.Entrant, error) {
	query := `
		SELECT id, email, notifications_enabled, created_at, updated_at
		FROM entrants
		WHERE id = $1
	`
	e := &domain.Entrant{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Email, &e.NotificationsEnabled, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *entrantRepository) Upsert(ctx context.Context, e *domain.Entrant) error {
	query := `
		INSERT INTO entrants (id, email, notifications_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, e.ID, e.Email, e.NotificationsEnabled, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *entrantRepository) SetNotificationsEnabled(ctx context.Context, id string, enabled bool, updatedAt time.Time) error {
	query := `UPDATE entrants SET notifications_enabled = $1, updated_at = $2 WHERE id = $3`
	result, err := r.DB.ExecContext(ctx, query, enabled, updatedAt, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
