package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

type EventController struct {
	Logger              *slog.Logger
	Events              domain.EventService
	RegistrationService domain.RegistrationService
}

func NewEventController(logger *slog.Logger, events domain.EventService, registrations domain.RegistrationService) *EventController {
	return &EventController{
		Logger:              logger,
		Events:              events,
		RegistrationService: registrations,
	}
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name              string    `json:"name"`
	NumberOfWinners   int       `json:"number_of_winners"`
	MaxEntrants       *int      `json:"max_entrants,omitempty"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
}

// Validate implements helpers.Validator.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}
	if r.NumberOfWinners <= 0 {
		errs = append(errs, "number_of_winners must be a positive integer")
	}
	if r.MaxEntrants != nil && *r.MaxEntrants <= 0 {
		errs = append(errs, "max_entrants must be positive when set")
	}
	if r.RegistrationStart.IsZero() || r.RegistrationEnd.IsZero() {
		errs = append(errs, "registration_start and registration_end are required")
	} else if !r.RegistrationEnd.After(r.RegistrationStart) {
		errs = append(errs, "registration_end must be after registration_start")
	}
	return errs
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates a DRAFT event owned by the authenticated organizer.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body controllers.CreateEventRequest true "Event parameters"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	event := domain.NewEvent(strings.TrimSpace(req.Name), ownerID, req.NumberOfWinners, req.MaxEntrants, req.RegistrationStart, req.RegistrationEnd, time.Time{}, time.Time{})
	if err := c.Events.CreateEvent(r.Context(), event); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidConfiguration) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	event, err := c.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListMyEvents godoc
// @Summary List events owned by the caller
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Router /my/events [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Events.ListMyEvents(r.Context(), ownerID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// OpenRegistration godoc
// @Summary Open registration for a DRAFT event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/open [post]
func (c *EventController) OpenRegistration(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, c.Events.OpenRegistration)
}

// CloseRegistration godoc
// @Summary Close registration for an OPEN event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/close [post]
func (c *EventController) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	c.changeStatus(w, r, c.Events.CloseRegistration)
}

// Registrations godoc
// @Summary Read-side view of an event's registrations
// @Description Joins waiting-list entries and decisions. Orphaned records are reported as warnings, never dropped.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/registrations [get]
func (c *EventController) Registrations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	callerID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	view, err := c.RegistrationService.RegistrationsFor(r.Context(), eventID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not the event organizer")
		default:
			c.fail(w, r, err)
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// MyRegistrations godoc
// @Summary List the caller's registrations across events
// @Description Returns the caller's decisions, newest first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /my/registrations [get]
func (c *EventController) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	decisions, err := c.RegistrationService.MyRegistrations(r.Context(), entrantID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, decisions)
}

func (c *EventController) changeStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, eventID, callerID string) error) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	callerID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := op(r.Context(), eventID, callerID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not the event organizer")
		case errors.Is(err, domain.ErrInvalidTransition):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event is not in the required status")
		default:
			c.fail(w, r, err)
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nil)
}

func (c *EventController) fail(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
}

// pathEventID extracts and validates the eventID path parameter, writing a
// 400 response on failure.
func pathEventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", false
	}
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return "", false
	}
	return eventID, true
}
