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

// fakeLotteryService implements domain.LotteryService for handler tests.
type fakeLotteryService struct {
	drawErr         error
	drawResult      *domain.DrawResult
	respondErr      error
	cancelErr       error
	lastDrawEventID string
	lastDrawCaller  string
	lastRespondDID  string
	lastOutcome     domain.RespondOutcome
}

func (f *fakeLotteryService) Draw(ctx context.Context, eventID, callerID string) (*domain.DrawResult, error) {
	f.lastDrawEventID = eventID
	f.lastDrawCaller = callerID
	if f.drawErr != nil {
		return nil, f.drawErr
	}
	if f.drawResult != nil {
		return f.drawResult, nil
	}
	return &domain.DrawResult{WinnersCount: 2, LosersCount: 3}, nil
}

func (f *fakeLotteryService) Respond(ctx context.Context, eventID, entrantID, decisionID string, outcome domain.RespondOutcome) (*domain.Decision, error) {
	f.lastRespondDID = decisionID
	f.lastOutcome = outcome
	if f.respondErr != nil {
		return nil, f.respondErr
	}
	now := time.Now()
	status := domain.DecisionAccepted
	if outcome == domain.RespondDecline {
		status = domain.DecisionDeclined
	}
	return &domain.Decision{
		ID:          decisionID,
		EventID:     eventID,
		EntrantID:   entrantID,
		Status:      status,
		UpdatedAt:   now,
		RespondedAt: &now,
	}, nil
}

func (f *fakeLotteryService) PromoteReplacements(ctx context.Context, eventID string, count int) ([]*domain.Decision, error) {
	return []*domain.Decision{}, nil
}

func (f *fakeLotteryService) CancelEvent(ctx context.Context, eventID, callerID string) error {
	return f.cancelErr
}

func (f *fakeLotteryService) ExpireInvitesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func TestLotteryController_Draw(t *testing.T) {
	tests := []struct {
		name       string
		eventID    string
		authed     bool
		drawErr    error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "draws",
			eventID:    testEventID,
			authed:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid event id",
			eventID:    "nope",
			authed:     true,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unauthenticated",
			eventID:    testEventID,
			authed:     false,
			wantStatus: http.StatusUnauthorized,
			wantCode:   helpers.ErrCodeUnauthorized,
		},
		{
			name:       "not the organizer",
			eventID:    testEventID,
			authed:     true,
			drawErr:    domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   helpers.ErrCodeForbidden,
		},
		{
			name:       "misconfigured event",
			eventID:    testEventID,
			authed:     true,
			drawErr:    domain.ErrInvalidConfiguration,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "registration still open",
			eventID:    testEventID,
			authed:     true,
			drawErr:    domain.ErrInvalidTransition,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "empty waiting list",
			eventID:    testEventID,
			authed:     true,
			drawErr:    domain.ErrNothingToDraw,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "unknown event",
			eventID:    testEventID,
			authed:     true,
			drawErr:    domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLotteryService{drawErr: tt.drawErr}
			c := NewLotteryController(testLogger, svc)

			req := httptest.NewRequest(http.MethodPost, "http://test/events/"+tt.eventID+"/draw", nil)
			req.SetPathValue("eventID", tt.eventID)
			if tt.authed {
				req = req.WithContext(middleware.SetEntrantID(req.Context(), "owner-1"))
			}
			rec := httptest.NewRecorder()

			c.Draw(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			data, apiErr := decodeEnvelope(t, rec)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			require.Nil(t, apiErr)
			var result domain.DrawResult
			require.NoError(t, json.Unmarshal(data, &result))
			assert.Equal(t, 2, result.WinnersCount)
			assert.Equal(t, 3, result.LosersCount)
			assert.Equal(t, "owner-1", svc.lastDrawCaller)
		})
	}
}

func TestLotteryController_Respond(t *testing.T) {
	tests := []struct {
		name       string
		decisionID string
		body       string
		respondErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "accepts",
			decisionID: testDecisionID,
			body:       `{"outcome":"accept"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "declines",
			decisionID: testDecisionID,
			body:       `{"outcome":"decline"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad outcome",
			decisionID: testDecisionID,
			body:       `{"outcome":"maybe"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "invalid decision id",
			decisionID: "nope",
			body:       `{"outcome":"accept"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "not invited",
			decisionID: testDecisionID,
			body:       `{"outcome":"accept"}`,
			respondErr: domain.ErrInvalidTransition,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "unknown decision",
			decisionID: testDecisionID,
			body:       `{"outcome":"accept"}`,
			respondErr: domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLotteryService{respondErr: tt.respondErr}
			c := NewLotteryController(testLogger, svc)

			path := "http://test/events/" + testEventID + "/decisions/" + tt.decisionID + "/response"
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(tt.body))
			req.SetPathValue("eventID", testEventID)
			req.SetPathValue("decisionID", tt.decisionID)
			req = req.WithContext(middleware.SetEntrantID(req.Context(), "user-123"))
			rec := httptest.NewRecorder()

			c.Respond(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			data, apiErr := decodeEnvelope(t, rec)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			require.Nil(t, apiErr)
			var decision domain.Decision
			require.NoError(t, json.Unmarshal(data, &decision))
			assert.Equal(t, tt.decisionID, decision.ID)
			assert.NotNil(t, decision.RespondedAt)
		})
	}
}

func TestLotteryController_Cancel(t *testing.T) {
	t.Run("cancels", func(t *testing.T) {
		c := NewLotteryController(testLogger, &fakeLotteryService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/events/"+testEventID+"/cancel", nil)
		req.SetPathValue("eventID", testEventID)
		req = req.WithContext(middleware.SetEntrantID(req.Context(), "owner-1"))
		rec := httptest.NewRecorder()

		c.Cancel(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		c := NewLotteryController(testLogger, &fakeLotteryService{cancelErr: domain.ErrForbidden})

		req := httptest.NewRequest(http.MethodPost, "http://test/events/"+testEventID+"/cancel", nil)
		req.SetPathValue("eventID", testEventID)
		req = req.WithContext(middleware.SetEntrantID(req.Context(), "intruder"))
		rec := httptest.NewRecorder()

		c.Cancel(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
