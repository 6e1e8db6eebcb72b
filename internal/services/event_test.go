package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID   map[string]*domain.Event
	nextID int
	err    error // if set, every method returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, id string, status domain.EventStatus, updatedAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	e, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = updatedAt
	return nil
}

func intPtr(v int) *int { return &v }

func seedEvent(repo *fakeEventRepo, ownerID string, winners int, status domain.EventStatus) *domain.Event {
	e := &domain.Event{
		Name:              "Autumn Gala",
		OwnerID:           ownerID,
		Status:            status,
		NumberOfWinners:   winners,
		RegistrationStart: time.Now().Add(-24 * time.Hour),
		RegistrationEnd:   time.Now().Add(24 * time.Hour),
	}
	_ = repo.Create(context.Background(), e)
	return e
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		wantErr error
	}{
		{
			name: "valid event",
			event: &domain.Event{
				Name:              "Marathon",
				OwnerID:           "owner-1",
				NumberOfWinners:   100,
				MaxEntrants:       intPtr(5000),
				RegistrationStart: start,
				RegistrationEnd:   start.Add(30 * 24 * time.Hour),
			},
		},
		{
			name: "missing owner",
			event: &domain.Event{
				Name:              "Marathon",
				NumberOfWinners:   100,
				RegistrationStart: start,
				RegistrationEnd:   start.Add(time.Hour),
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "zero winners",
			event: &domain.Event{
				Name:              "Marathon",
				OwnerID:           "owner-1",
				NumberOfWinners:   0,
				RegistrationStart: start,
				RegistrationEnd:   start.Add(time.Hour),
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "cap below winners",
			event: &domain.Event{
				Name:              "Marathon",
				OwnerID:           "owner-1",
				NumberOfWinners:   100,
				MaxEntrants:       intPtr(50),
				RegistrationStart: start,
				RegistrationEnd:   start.Add(time.Hour),
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "empty registration window",
			event: &domain.Event{
				Name:              "Marathon",
				OwnerID:           "owner-1",
				NumberOfWinners:   100,
				RegistrationStart: start,
				RegistrationEnd:   start,
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeEventRepo()
			svc := NewEventService(repo)

			err := svc.CreateEvent(ctx, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.byID)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, tt.event.ID)
			assert.Equal(t, domain.EventDraft, tt.event.Status)
			assert.False(t, tt.event.CreatedAt.IsZero())
		})
	}
}

func TestEventService_StatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("open then close", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo)
		e := seedEvent(repo, "owner-1", 10, domain.EventDraft)

		require.NoError(t, svc.OpenRegistration(ctx, e.ID, "owner-1"))
		assert.Equal(t, domain.EventOpen, repo.byID[e.ID].Status)

		require.NoError(t, svc.CloseRegistration(ctx, e.ID, "owner-1"))
		assert.Equal(t, domain.EventClosed, repo.byID[e.ID].Status)
	})

	t.Run("only the owner may transition", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo)
		e := seedEvent(repo, "owner-1", 10, domain.EventDraft)

		err := svc.OpenRegistration(ctx, e.ID, "someone-else")
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, domain.EventDraft, repo.byID[e.ID].Status)
	})

	t.Run("close requires open", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo)
		e := seedEvent(repo, "owner-1", 10, domain.EventDraft)

		err := svc.CloseRegistration(ctx, e.ID, "owner-1")
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown event", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo)

		err := svc.OpenRegistration(ctx, "missing", "owner-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventService_ListMyEvents(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	svc := NewEventService(repo)

	seedEvent(repo, "owner-1", 10, domain.EventOpen)
	seedEvent(repo, "owner-1", 5, domain.EventDraft)
	seedEvent(repo, "owner-2", 3, domain.EventOpen)

	events, err := svc.ListMyEvents(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = svc.ListMyEvents(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, events)
}
