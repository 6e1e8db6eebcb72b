package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eventlottery/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			event: &domain.Event{
				Name:              "Pottery class",
				OwnerID:           "org-uuid-1",
				Status:            domain.EventDraft,
				NumberOfWinners:   10,
				RegistrationStart: created,
				RegistrationEnd:   created.Add(48 * time.Hour),
				CreatedAt:         created,
				UpdatedAt:         created,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(name, owner_id, status, number_of_winners, max_entrants`).
					WithArgs("Pottery class", "org-uuid-1", "DRAFT", 10, sql.NullInt64{}, created, created.Add(48*time.Hour), created, created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-uuid-1"))
			},
			wantID:  "ev-uuid-1",
			wantErr: false,
		},
		{
			name: "db error",
			event: &domain.Event{
				Name:            "Swim",
				OwnerID:         "org-1",
				Status:          domain.EventDraft,
				NumberOfWinners: 2,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "name", "owner_id", "status", "number_of_winners", "max_entrants", "registration_start", "registration_end", "created_at", "updated_at"}

	t.Run("success with max entrants", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, name, owner_id, status, number_of_winners, max_entrants`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("ev-1", "Pottery class", "org-1", "OPEN", 10, 50, ts, ts.Add(48*time.Hour), ts, ts))

		repo := NewEventRepository(db)
		event, err := repo.GetByID(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, "ev-1", event.ID)
		require.Equal(t, domain.EventOpen, event.Status)
		require.NotNil(t, event.MaxEntrants)
		require.Equal(t, 50, *event.MaxEntrants)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no max entrants", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, name, owner_id, status, number_of_winners, max_entrants`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("ev-1", "Pottery class", "org-1", "DRAFT", 10, nil, ts, ts.Add(48*time.Hour), ts, ts))

		repo := NewEventRepository(db)
		event, err := repo.GetByID(ctx, "ev-1")
		require.NoError(t, err)
		require.Nil(t, event.MaxEntrants)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, name, owner_id, status, number_of_winners, max_entrants`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewEventRepository(db)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE events SET status = \$1, updated_at = \$2 WHERE id = \$3`).
			WithArgs("OPEN", now, "ev-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewEventRepository(db)
		require.NoError(t, repo.UpdateStatus(ctx, "ev-1", domain.EventOpen, now))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE events SET status`).
			WithArgs("OPEN", now, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewEventRepository(db)
		require.ErrorIs(t, repo.UpdateStatus(ctx, "missing", domain.EventOpen, now), domain.ErrNotFound)
	})
}
