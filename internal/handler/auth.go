// Package handler contains the HTTP layer: request parsing, response
// writing, and the translation of domain errors to status codes. All
// business rules live one layer down in internal/service.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/contentguard/internal/auth"
	"github.com/sakif/contentguard/internal/service"
)

// AuthHandler manages session establishment and teardown.
//
//	HandleCreateSession → exchange a provider session ID for a cookie
//	HandleMe            → return the logged-in user's profile
//	HandleLogout        → delete the session, clear the cookie
type AuthHandler struct {
	authService  *service.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. cookieSecure should be true
// whenever the deployment serves HTTPS; it is configurable only so local
// development over plain HTTP works.
func NewAuthHandler(authService *service.AuthService, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

type createSessionResponse struct {
	User    interface{} `json:"user"`
	Message string      `json:"message"`
}

// HandleCreateSession completes a login.
//
// HTTP: POST /api/auth/session
// Body: {"session_id": "..."} — the opaque ID the provider put in the
// redirect URL. The server resolves it with the provider, persists the
// session, and sets the HttpOnly session cookie.
func (h *AuthHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid session request JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.authService.EstablishSession(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	// HttpOnly keeps the token out of reach of page scripts; SameSite=Lax
	// still sends it on top-level navigation back from the provider.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(service.SessionLifetime / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, createSessionResponse{
		User:    result.User,
		Message: "Session created",
	})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/auth/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't assume the wiring.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleLogout deletes the server-side session and clears the cookie.
//
// HTTP: POST /api/auth/logout
//
// POST rather than GET: logout changes state, and a GET would be
// triggerable cross-site or by link prefetching. Not behind RequireAuth —
// logging out with an already-dead session should still clear the cookie
// and succeed.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractToken(r)

	if err := h.authService.Logout(r.Context(), token); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
