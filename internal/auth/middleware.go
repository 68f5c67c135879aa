package auth

import (
	"context"
	"net/http"

	"github.com/sakif/contentguard/internal/model"
)

// CookieName is the session cookie the middleware reads and the auth
// handler sets.
const CookieName = "session_token"

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the values we store.
type contextKey string

const userIDKey contextKey = "userID"

// SessionResolver is the subset of repository.SessionRepository the
// middleware needs. Declaring it here keeps the dependency pointing toward
// the consumer and lets tests pass a two-line fake.
type SessionResolver interface {
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
}

// RequireAuth enforces authentication on protected routes.
//
// This middleware is the single place identity is resolved: it extracts
// the opaque session token, validates it against the session store (expiry
// is enforced there), and stores the user ID in the request context.
// Handlers and services below it never read cookies or headers themselves —
// they take the resolved requester ID as an explicit parameter.
//
// The token is accepted from the HttpOnly session cookie (browser clients)
// or an "Authorization: Bearer" header (API clients). Both carry the same
// opaque token; the transport is a deployment detail.
func RequireAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			session, err := sessions.GetSessionByToken(r.Context(), token)
			if err != nil || session == nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) on routes that didn't pass RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ExtractToken returns the opaque session token presented with the
// request, or "" if none. Exposed for the logout handler, which needs the
// token itself rather than the resolved user.
func ExtractToken(r *http.Request) string {
	return extractToken(r)
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}

	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
