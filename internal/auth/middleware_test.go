package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sakif/contentguard/internal/apperror"
	"github.com/sakif/contentguard/internal/model"
)

// fakeSessions is a minimal SessionResolver for middleware tests.
type fakeSessions struct {
	sessions map[string]*model.Session
}

func (f *fakeSessions) GetSessionByToken(_ context.Context, token string) (*model.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, apperror.NotFound("session", "")
	}
	return s, nil
}

func newAuthedHandler(t *testing.T, sessions SessionResolver) (http.Handler, *string) {
	t.Helper()

	var gotUserID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Error("UserIDFromContext returned !ok inside a protected handler")
		}
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})

	return RequireAuth(sessions)(inner), &gotUserID
}

func liveSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*model.Session{
		"tok-1": {Token: "tok-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)},
	}}
}

func TestRequireAuth_CookieToken(t *testing.T) {
	handler, gotUserID := newAuthedHandler(t, liveSessions())

	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if *gotUserID != "user-1" {
		t.Errorf("userID in context = %q, want %q", *gotUserID, "user-1")
	}
}

func TestRequireAuth_BearerToken(t *testing.T) {
	handler, gotUserID := newAuthedHandler(t, liveSessions())

	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if *gotUserID != "user-1" {
		t.Errorf("userID in context = %q, want %q", *gotUserID, "user-1")
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	handler, _ := newAuthedHandler(t, liveSessions())

	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuth_UnknownToken(t *testing.T) {
	handler, _ := newAuthedHandler(t, liveSessions())

	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-nope"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	if id, ok := UserIDFromContext(context.Background()); ok || id != "" {
		t.Errorf("UserIDFromContext(empty ctx) = (%q, %v), want (\"\", false)", id, ok)
	}
}

func TestExtractToken_CookieWinsOverHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")

	if got := ExtractToken(req); got != "from-cookie" {
		t.Errorf("ExtractToken() = %q, want %q", got, "from-cookie")
	}
}
