package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// stubNotificationService implements domain.NotificationService for handler tests.
type stubNotificationService struct{}

func (stubNotificationService) Notify(ctx context.Context, recipientID, eventID string, typ domain.NotificationType, title, message string) (domain.DispatchOutcome, error) {
	return domain.DispatchSent, nil
}

func (stubNotificationService) NotifyMany(ctx context.Context, recipientIDs []string, eventID string, typ domain.NotificationType, title, message string) ([]domain.RecipientOutcome, error) {
	return nil, nil
}

func (stubNotificationService) ListForRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	return []*domain.Notification{}, nil
}

func (stubNotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return nil
}

// stubEntrantRepo implements domain.EntrantRepository backed by a map.
type stubEntrantRepo struct {
	byID      map[string]*domain.Entrant
	upsertErr error
}

func newStubEntrantRepo() *stubEntrantRepo {
	return &stubEntrantRepo{byID: make(map[string]*domain.Entrant)}
}

func (f *stubEntrantRepo) GetByID(ctx context.Context, id string) (*domain.Entrant, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *stubEntrantRepo) Upsert(ctx context.Context, entrant *domain.Entrant) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byID[entrant.ID]; ok {
		// Mirrors the conflict path: only the address and updated_at move.
		existing.Email = entrant.Email
		existing.UpdatedAt = entrant.UpdatedAt
		return nil
	}
	cp := *entrant
	f.byID[entrant.ID] = &cp
	return nil
}

func (f *stubEntrantRepo) SetNotificationsEnabled(ctx context.Context, id string, enabled bool, updatedAt time.Time) error {
	e, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.NotificationsEnabled = enabled
	e.UpdatedAt = updatedAt
	return nil
}

func TestNotificationController_UpdateProfile(t *testing.T) {
	newRequest := func(body string, authed bool) *http.Request {
		req := httptest.NewRequest(http.MethodPut, "http://test/me/profile", bytes.NewBufferString(body))
		if authed {
			req = req.WithContext(middleware.SetEntrantID(req.Context(), "user-123"))
		}
		return req
	}

	t.Run("provisions a new entrant with notifications enabled", func(t *testing.T) {
		repo := newStubEntrantRepo()
		c := NewNotificationController(testLogger, stubNotificationService{}, repo)
		rec := httptest.NewRecorder()

		c.UpdateProfile(rec, newRequest(`{"email":"user@example.com"}`, true))

		assert.Equal(t, http.StatusOK, rec.Code)
		data, apiErr := decodeEnvelope(t, rec)
		require.Nil(t, apiErr)
		var entrant domain.Entrant
		require.NoError(t, json.Unmarshal(data, &entrant))
		assert.Equal(t, "user-123", entrant.ID)
		assert.Equal(t, "user@example.com", entrant.Email)
		assert.True(t, entrant.NotificationsEnabled)
	})

	t.Run("refresh keeps an existing opt-out", func(t *testing.T) {
		repo := newStubEntrantRepo()
		repo.byID["user-123"] = &domain.Entrant{
			ID:                   "user-123",
			Email:                "old@example.com",
			NotificationsEnabled: false,
		}
		c := NewNotificationController(testLogger, stubNotificationService{}, repo)
		rec := httptest.NewRecorder()

		c.UpdateProfile(rec, newRequest(`{"email":"new@example.com"}`, true))

		assert.Equal(t, http.StatusOK, rec.Code)
		data, apiErr := decodeEnvelope(t, rec)
		require.Nil(t, apiErr)
		var entrant domain.Entrant
		require.NoError(t, json.Unmarshal(data, &entrant))
		assert.Equal(t, "new@example.com", entrant.Email)
		assert.False(t, entrant.NotificationsEnabled)
	})

	t.Run("email is required", func(t *testing.T) {
		c := NewNotificationController(testLogger, stubNotificationService{}, newStubEntrantRepo())
		rec := httptest.NewRecorder()

		c.UpdateProfile(rec, newRequest(`{"email":"  "}`, true))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		_, apiErr := decodeEnvelope(t, rec)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeBadRequest, apiErr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		c := NewNotificationController(testLogger, stubNotificationService{}, newStubEntrantRepo())
		rec := httptest.NewRecorder()

		c.UpdateProfile(rec, newRequest(`{"email":"user@example.com"}`, false))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestNotificationController_UpdateSettings(t *testing.T) {
	repo := newStubEntrantRepo()
	repo.byID["user-123"] = &domain.Entrant{ID: "user-123", NotificationsEnabled: true}
	c := NewNotificationController(testLogger, stubNotificationService{}, repo)

	req := httptest.NewRequest(http.MethodPut, "http://test/me/notification-settings", bytes.NewBufferString(`{"enabled":false}`))
	req = req.WithContext(middleware.SetEntrantID(req.Context(), "user-123"))
	rec := httptest.NewRecorder()

	c.UpdateSettings(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.byID["user-123"].NotificationsEnabled)
}
