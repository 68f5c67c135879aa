package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/contentguard/internal/apperror"
	"github.com/sakif/contentguard/internal/auth"
	"github.com/sakif/contentguard/internal/model"
	"github.com/sakif/contentguard/internal/repository"
)

// SessionLifetime is how long an established session stays valid.
const SessionLifetime = 7 * 24 * time.Hour

// IdentityResolver is the slice of the provider client the auth service
// uses; tests substitute a fake instead of standing up an HTTP server.
type IdentityResolver interface {
	Resolve(ctx context.Context, sessionID string) (*auth.ProviderIdentity, error)
}

// AuthService exchanges provider session IDs for local sessions and
// answers "who is this user".
type AuthService struct {
	provider IdentityResolver
	users    repository.UserRepository
	sessions repository.SessionRepository
	logger   *slog.Logger
}

func NewAuthService(
	provider IdentityResolver,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		provider: provider,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// SessionResult bundles the user and the opaque token so the handler can
// set the cookie and respond in one step.
type SessionResult struct {
	User  *model.User
	Token string
}

// EstablishSession completes a login: it resolves the opaque session ID
// against the identity provider, upserts the user's profile, and persists
// a server-side session for the provider's token.
//
// The provider call happens server-to-server — the client only ever hands
// us the session ID it received on the redirect, never a profile we'd have
// to trust. A provider rejection surfaces as ErrUnauthorized, not as an
// internal error: an invalid or replayed session ID is the caller's fault.
func (s *AuthService) EstablishSession(ctx context.Context, sessionID string) (*SessionResult, error) {
	if sessionID == "" {
		return nil, apperror.Unauthorized("session ID is required")
	}

	identity, err := s.provider.Resolve(ctx, sessionID)
	if err != nil {
		s.logger.Warn("identity provider rejected session",
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unauthorized("could not verify session with identity provider")
	}

	user := &model.User{
		ID:      identity.ID,
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		s.logger.Error("failed to upsert user",
			slog.String("userID", identity.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	session := &model.Session{
		Token:     identity.SessionToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(SessionLifetime),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		s.logger.Error("failed to create session",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Info("session established",
		slog.String("userID", user.ID),
		slog.Time("expiresAt", session.ExpiresAt),
	)

	return &SessionResult{User: user, Token: session.Token}, nil
}

// CurrentUser loads the profile for a resolved user ID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// Logout deletes the session for the given token. A token with no session
// behind it is not an error — logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
