package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// SessionCookie carries the session token for the server-rendered dashboard.
// API clients send the same token as a bearer header instead.
const SessionCookie = "session_token"

// SessionStore is the session lookup the middleware needs.
type SessionStore interface {
	// Get returns the user ID for a token, or "" if unknown or expired.
	Get(ctx context.Context, token string) (string, error)
}

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated user's ID set by RequireAuth.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// WithUserID returns a request whose context carries the user ID. Exposed for
// handler tests that bypass the middleware.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// TokenFromRequest extracts the session token from the Authorization header,
// falling back to the dashboard cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token := strings.TrimPrefix(h, "Bearer "); token != h {
			return token
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth validates the session token and injects the user ID into the
// request context. Requests without a live session get a 401.
func RequireAuth(sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w, "not authenticated")
				return
			}

			userID, err := sessions.Get(r.Context(), token)
			if err != nil || userID == "" {
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, WithUserID(r, userID))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
