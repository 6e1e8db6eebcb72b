package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

type LotteryController struct {
	Logger  *slog.Logger
	Service domain.LotteryService
}

func NewLotteryController(logger *slog.Logger, svc domain.LotteryService) *LotteryController {
	return &LotteryController{
		Logger:  logger,
		Service: svc,
	}
}

// Draw godoc
// @Summary Run the lottery draw for an event
// @Description Randomly promotes at most number_of_winners PENDING decisions to INVITED and moves the rest to LOST, as one atomic commit. Requires a CLOSED event; re-running a drawn event is a no-op.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid configuration)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (nothing to draw, or registration still open)"
// @Router /events/{eventID}/draw [post]
func (c *LotteryController) Draw(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	callerID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	result, err := c.Service.Draw(r.Context(), eventID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not the event organizer")
		case errors.Is(err, domain.ErrInvalidConfiguration):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "event has no valid number_of_winners")
		case errors.Is(err, domain.ErrNothingToDraw):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "no pending decisions to draw")
		case errors.Is(err, domain.ErrInvalidTransition):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "registration must be closed before the draw")
		default:
			c.fail(w, r, err)
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// RespondRequest is the request body for POST /events/{eventID}/decisions/{decisionID}/response.
type RespondRequest struct {
	Outcome string `json:"outcome"`
}

// Validate implements helpers.Validator.
func (r *RespondRequest) Validate() []string {
	switch domain.RespondOutcome(r.Outcome) {
	case domain.RespondAccept, domain.RespondDecline:
		return nil
	}
	return []string{`outcome must be "accept" or "decline"`}
}

// Respond godoc
// @Summary Accept or decline an invitation
// @Description Applies the entrant's response to an INVITED decision. A decline promotes the longest-waiting PENDING entrant as a replacement.
// @Tags lottery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param decisionID path string true "Decision ID (UUID)"
// @Param request body controllers.RespondRequest true "accept or decline"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not invited, or wrong entrant)"
// @Router /events/{eventID}/decisions/{decisionID}/response [post]
func (c *LotteryController) Respond(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	decisionID := r.PathValue("decisionID")
	if !uuidRegex.MatchString(decisionID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid decisionID")
		return
	}
	entrantID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req RespondRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	decision, err := c.Service.Respond(r.Context(), eventID, entrantID, decisionID, domain.RespondOutcome(req.Outcome))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "decision not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "decision is not open for a response")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.fail(w, r, err)
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, decision)
}

// Cancel godoc
// @Summary Cancel an event's lottery
// @Description Moves every PENDING and INVITED decision to CANCELLED and completes the event.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/cancel [post]
func (c *LotteryController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	callerID, ok := middleware.EntrantIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.CancelEvent(r.Context(), eventID, callerID); err != nil {
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
	helpers.WriteJSONSuccess(w, http.StatusOK, nil)
}

func (c *LotteryController) fail(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
}
