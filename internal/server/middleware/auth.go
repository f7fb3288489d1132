package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/evmarket/evmarketd/internal/domain"
)

// ctxKey is a private type for context keys defined in this package.
type ctxKey int

const sessionKey ctxKey = iota

// Authenticator resolves a session id to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (domain.Session, error)
}

// SessionAuth returns middleware that requires a gateway session. The session
// id travels as a Bearer token in the Authorization header; the resolved
// session is attached to the request context for handlers to read via
// SessionFrom.
func SessionAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := extractBearer(r)
			if sessionID == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing session token")
				return
			}

			session, err := auth.Authenticate(r.Context(), sessionID)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrSessionExpired):
					writeAuthError(w, http.StatusUnauthorized, "session expired")
				case errors.Is(err, domain.ErrUnauthorized):
					writeAuthError(w, http.StatusUnauthorized, "invalid session token")
				default:
					writeAuthError(w, http.StatusInternalServerError, "authentication unavailable")
				}
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session attached by SessionAuth. The second return
// is false on routes that never passed through the middleware.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(domain.Session)
	return s, ok
}

// extractBearer pulls the token out of an Authorization: Bearer header.
func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeAuthError sends a JSON error body with the given status.
func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
