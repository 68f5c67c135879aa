package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/contentguard/internal/apperror"
	"github.com/sakif/contentguard/internal/model"
	"github.com/sakif/contentguard/internal/repository"
)

// Compile-time checks that *DB implements the identity repositories.
var (
	_ repository.UserRepository    = (*DB)(nil)
	_ repository.SessionRepository = (*DB)(nil)
)

// Upsert inserts the user on first login or refreshes the stored profile on
// subsequent logins. The provider's ID is the primary key, so ON CONFLICT
// on id covers both paths in one statement; created_at is only written on
// the insert path.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, picture, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email = excluded.email,
		   name = excluded.name,
		   picture = excluded.picture`,
		user.ID,
		user.Email,
		user.Name,
		user.Picture,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %s: %w", user.ID, err)
	}

	return nil
}

// GetUserByID retrieves a user by their provider ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, picture, created_at
		 FROM users
		 WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// CreateSession persists a new session row.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (token, user_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session: %w", err)
	}

	return nil
}

// GetSessionByToken looks up a live session. An expired session is purged
// and reported as not found — from the caller's point of view it no longer
// exists.
func (db *DB) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session

	err := db.conn.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at
		 FROM sessions
		 WHERE token = ?`,
		token,
	).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", "")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	if s.Expired(time.Now().UTC()) {
		// Best-effort cleanup; the lookup result is the same either way.
		if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
			return nil, fmt.Errorf("sqlite: purging expired session: %w", err)
		}
		return nil, apperror.NotFound("session", "")
	}

	return &s, nil
}

// DeleteSession removes a session by token. Deleting a token that is
// already gone is not an error — logout is idempotent.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}
