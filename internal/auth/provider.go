// Package auth provides the identity-provider client, the session cookie
// contract, and the authentication middleware.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. The frontend sends the user through the provider's hosted OAuth flow.
// 2. The provider redirects back with an opaque session ID in the URL.
// 3. The frontend POSTs that ID to /api/auth/session.
// 4. The server resolves the ID against the provider (server-to-server),
//    upserts the user, persists a session row, and sets an HttpOnly cookie.
// 5. On later requests the middleware reads the cookie (or bearer header),
//    looks the session up in the store, and puts the user ID in the
//    request context.
//
// The OAuth dance itself belongs entirely to the provider; the only
// contract this service consumes is "opaque session ID in, user profile
// and session token out".
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ProviderIdentity is the portion of the provider's session-data response
// we care about. The provider returns a larger object; we only decode the
// fields we use.
type ProviderIdentity struct {
	// ID is the provider's stable user ID.
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// Provider resolves opaque session IDs against the external identity
// provider's session-data endpoint.
type Provider struct {
	baseURL string
	client  *http.Client
}

// NewProvider creates a Provider for the given base URL, e.g.
// "https://auth.example.com/v1/oauth". Pass nil to use a default client
// with a request timeout; the provider call is synchronous on the login
// path, so an unbounded client would let a slow provider hang logins.
func NewProvider(baseURL string, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{baseURL: baseURL, client: client}
}

// Resolve exchanges an opaque session ID for the user's identity.
//
// The provider contract: GET {base}/session-data with the session ID in
// the X-Session-ID header. 200 means the ID is live and the body carries
// the profile plus the long-lived session token; anything else means the
// ID is invalid, expired, or already consumed.
func (p *Provider) Resolve(ctx context.Context, sessionID string) (*ProviderIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/session-data", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building session-data request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: identity provider returned status %d", resp.StatusCode)
	}

	var identity ProviderIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("auth: decoding session-data response: %w", err)
	}

	if identity.ID == "" || identity.SessionToken == "" {
		return nil, fmt.Errorf("auth: identity provider returned an incomplete identity")
	}

	return &identity, nil
}
