package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/adapters/auth"
	"eventlottery/internal/delivery/http/helpers"
)

func TestTokenController_Issue(t *testing.T) {
	const secret = "dev-secret"

	t.Run("minted token verifies back to the entrant", func(t *testing.T) {
		c := NewTokenController(testLogger, auth.NewJWTIssuer(secret))

		req := httptest.NewRequest(http.MethodPost, "http://test/dev/token", bytes.NewBufferString(`{"entrant_id":"user-123"}`))
		rec := httptest.NewRecorder()

		c.Issue(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		data, apiErr := decodeEnvelope(t, rec)
		require.Nil(t, apiErr)
		var resp DevTokenResponse
		require.NoError(t, json.Unmarshal(data, &resp))
		require.NotEmpty(t, resp.Token)

		entrantID, err := auth.NewJWTVerifier(secret).Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", entrantID)
	})

	t.Run("entrant_id is required", func(t *testing.T) {
		c := NewTokenController(testLogger, auth.NewJWTIssuer(secret))

		req := httptest.NewRequest(http.MethodPost, "http://test/dev/token", bytes.NewBufferString(`{"entrant_id":""}`))
		rec := httptest.NewRecorder()

		c.Issue(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		_, apiErr := decodeEnvelope(t, rec)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeBadRequest, apiErr.Code)
	})
}
