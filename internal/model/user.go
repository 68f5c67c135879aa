// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a client account.
//
// Identity comes from an external OAuth provider, so the primary ID is the
// provider's stable user identifier rather than one we generate. We keep a
// local copy of the profile so the dashboard can render the user's name and
// picture without a round trip to the provider on every request.
//
// Picture may be empty — the provider only returns it when the user has a
// profile photo. We use the empty string as the zero value rather than a
// nullable pointer; it's simpler to work with and safe to display.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a server-side session record bound to the opaque token issued
// by the identity provider. The token is what the browser presents on every
// request (HttpOnly cookie or bearer header); the record is what makes it
// revocable — deleting the row logs the user out everywhere.
//
// Expiry is enforced at lookup time: an expired session is treated exactly
// like a missing one.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
