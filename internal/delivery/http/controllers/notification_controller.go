package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// timeNow is swappable in tests.
var timeNow = time.Now

type NotificationController struct {
	Logger      *slog.Logger
	Service     domain.NotificationService
	EntrantRepo domain.EntrantRepository
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService, entrantRepo domain.EntrantRepository) *NotificationController {
	return &NotificationController{
		Logger:      logger,
		Service:     svc,
		EntrantRepo: entrantRepo,
	}
}

// List godoc
// @Summary List the caller's notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Router /notifications [get]
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	notifications, err := c.Service.ListForRecipient(r.Context(), entrantID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, notifications)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "Notification ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /notifications/{notificationID}/read [post]
func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID := r.PathValue("notificationID")
	if !uuidRegex.MatchString(notificationID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid notificationID")
		return
	}
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.MarkRead(r.Context(), entrantID, notificationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "notification not found")
			return
		}
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nil)
}

// NotificationSettingsRequest is the request body for PUT /me/notification-settings.
type NotificationSettingsRequest struct {
	Enabled *bool `json:"enabled"`
}

// Validate implements helpers.Validator.
func (r *NotificationSettingsRequest) Validate() []string {
	if r.Enabled == nil {
		return []string{"enabled is required"}
	}
	return nil
}

// UpdateSettings godoc
// @Summary Opt the caller in or out of notifications
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body controllers.NotificationSettingsRequest true "Opt-in flag"
// @Success 200 {object} helpers.APIResponse
// @Router /me/notification-settings [put]
func (c *NotificationController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req NotificationSettingsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.EntrantRepo.SetNotificationsEnabled(r.Context(), entrantID, *req.Enabled, timeNow()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "entrant not found")
			return
		}
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nil)
}

// ProfileRequest is the request body for PUT /me/profile.
type ProfileRequest struct {
	Email string `json:"email"`
}

// Validate implements helpers.Validator.
func (r *ProfileRequest) Validate() []string {
	if strings.TrimSpace(r.Email) == "" {
		return []string{"email is required"}
	}
	return nil
}

// UpdateProfile godoc
// @Summary Refresh the caller's contact profile
// @Description Creates or refreshes the entrant projection row from the identity token. New entrants start with notifications enabled; an existing opt-out is preserved.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body controllers.ProfileRequest true "Contact address"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /me/profile [put]
func (c *NotificationController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	now := timeNow()
	entrant := &domain.Entrant{
		ID:                   entrantID,
		Email:                strings.TrimSpace(req.Email),
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := c.EntrantRepo.Upsert(r.Context(), entrant); err != nil {
		c.fail(w, r, err)
		return
	}
	// Re-read: the conflict path keeps the stored opt-out flag and created_at.
	stored, err := c.EntrantRepo.GetByID(r.Context(), entrantID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stored)
}

func (c *NotificationController) fail(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
}
