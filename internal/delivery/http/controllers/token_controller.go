package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

const devTokenTTL = 24 * time.Hour

// TokenController mints bearer tokens for local development. Production
// tokens come from the external identity service; this controller is only
// mounted outside production.
type TokenController struct {
	Logger *slog.Logger
	Issuer domain.TokenIssuer
}

func NewTokenController(logger *slog.Logger, issuer domain.TokenIssuer) *TokenController {
	return &TokenController{
		Logger: logger,
		Issuer: issuer,
	}
}

// DevTokenRequest is the request body for POST /dev/token.
type DevTokenRequest struct {
	EntrantID string `json:"entrant_id"`
}

// Validate implements helpers.Validator.
func (r *DevTokenRequest) Validate() []string {
	if strings.TrimSpace(r.EntrantID) == "" {
		return []string{"entrant_id is required"}
	}
	return nil
}

// DevTokenResponse is the response payload for POST /dev/token.
type DevTokenResponse struct {
	Token string `json:"token"`
}

// Issue godoc
// @Summary Mint a development bearer token
// @Description Issues a signed token for the given entrant. Only available outside production.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body controllers.DevTokenRequest true "Entrant to impersonate"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /dev/token [post]
func (c *TokenController) Issue(w http.ResponseWriter, r *http.Request) {
	var req DevTokenRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, err := c.Issuer.Issue(strings.TrimSpace(req.EntrantID), devTokenTTL)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DevTokenResponse{Token: token})
}
