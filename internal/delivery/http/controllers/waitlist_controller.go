package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

type WaitlistController struct {
	Logger  *slog.Logger
	Service domain.WaitlistService
}

func NewWaitlistController(logger *slog.Logger, svc domain.WaitlistService) *WaitlistController {
	return &WaitlistController{
		Logger:  logger,
		Service: svc,
	}
}

// JoinRequest is the optional request body for POST /events/{eventID}/waitlist.
type JoinRequest struct {
	Location *domain.GeoPoint `json:"location,omitempty"`
}

// Validate implements helpers.Validator.
func (r *JoinRequest) Validate() []string {
	if r.Location == nil {
		return nil
	}
	if r.Location.Lat < -90 || r.Location.Lat > 90 || r.Location.Lng < -180 || r.Location.Lng > 180 {
		return []string{"location is out of range"}
	}
	return nil
}

// Join godoc
// @Summary Join an event's waiting list
// @Description Atomically creates the waiting-list entry and its PENDING decision. A repeat join returns 409 already_joined, which clients may treat as success.
// @Tags waitlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param request body controllers.JoinRequest false "Optional join metadata"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/waitlist [post]
func (c *WaitlistController) Join(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req JoinRequest
	if r.ContentLength > 0 {
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	entry, err := c.Service.Join(r.Context(), eventID, entrantID, domain.JoinMeta{Location: req.Location})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrAlreadyJoined):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already joined")
		case errors.Is(err, domain.ErrRegistrationClosed):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "registration is closed")
		case errors.Is(err, domain.ErrEventFull):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "waiting list is full")
		default:
			c.fail(w, r, err)
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// Leave godoc
// @Summary Leave an event's waiting list
// @Description Removes the entry and its decision. Only possible while the decision is still PENDING; invited entrants must respond instead.
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/waitlist [delete]
func (c *WaitlistController) Leave(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Leave(r.Context(), eventID, entrantID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not on the waiting list")
		case errors.Is(err, domain.ErrInvalidTransition):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "decision is no longer pending; respond to the invitation instead")
		default:
			c.fail(w, r, err)
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nil)
}

// List godoc
// @Summary List an event's waiting-list entries
// @Tags waitlist
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Router /events/{eventID}/waitlist [get]
func (c *WaitlistController) List(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	entries, err := c.Service.List(r.Context(), eventID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entries)
}

func (c *WaitlistController) fail(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
}
