// Package sqlite implements the repository interfaces on an embedded SQLite
// database.
//
// We use modernc.org/sqlite rather than mattn/go-sqlite3 so the build stays
// pure Go — no CGo, no C toolchain, trivial cross-compilation. The driver
// registers itself with database/sql under the name "sqlite" via its init
// function, which is what the blank import below is for.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and carries the repository methods for
// users, sessions, cases and targets. One *DB satisfies all four repository
// interfaces; the service layer still receives them as separate interfaces.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" in tests), configures it and
// runs migrations. The returned DB owns the pool; callers must Close it.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force the first connection now so a bad path surfaces here rather
	// than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets concurrent reads proceed while a write is in flight — two
	// simultaneous addTargets calls must not block each other's reads.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// SQLite ships with foreign keys off; we rely on them for the
	// targets → cases reference.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL and releasing the
// file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL,
			name       TEXT NOT NULL,
			picture    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cases (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			priority    TEXT NOT NULL DEFAULT 'normal',
			status      TEXT NOT NULL DEFAULT 'submitted',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_cases_owner_id ON cases(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating cases table: %w", err)
	}

	// A target cannot exist without its parent case. Deleting a case goes
	// through CaseRepository.Delete, which removes the targets in the same
	// transaction; the FK backstops anything else.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS targets (
			id              TEXT PRIMARY KEY,
			case_id         TEXT NOT NULL REFERENCES cases(id),
			url             TEXT NOT NULL,
			domain          TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'pending',
			last_checked_at DATETIME,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_targets_case_id ON targets(case_id);
		CREATE INDEX IF NOT EXISTS idx_targets_status ON targets(status);
	`)
	if err != nil {
		return fmt.Errorf("creating targets table: %w", err)
	}

	return nil
}
