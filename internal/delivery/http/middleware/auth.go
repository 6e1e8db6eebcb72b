package middleware

import (
	"context"
	"net/http"
	"strings"

	h "eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

type contextKey string

const entrantIDKey contextKey = "entrantID"

// SetEntrantID returns a context with the entrant ID set. Used by auth middleware.
func SetEntrantID(ctx context.Context, entrantID string) context.Context {
	return context.WithValue(ctx, entrantIDKey, entrantID)
}

// EntrantIDFromContext returns the authenticated entrant ID from the context, if present.
func EntrantIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(entrantIDKey).(string)
	return id, ok
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the
// entrant ID in the request context. If the token is missing or invalid, it
// responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			entrantID, err := verifier.Verify(token)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetEntrantID(r.Context(), entrantID))
			next(w, r)
		}
	}
}
