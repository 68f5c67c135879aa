package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/contentguard/internal/apperror"
	"github.com/sakif/contentguard/internal/model"
	"github.com/sakif/contentguard/internal/repository"
)

// Compile-time check that *DB implements repository.CaseRepository.
var _ repository.CaseRepository = (*DB)(nil)

// Create inserts a new case. The pointer is modified in place: ID and
// timestamps are filled in here, with CreatedAt == UpdatedAt on creation.
//
// xid IDs are 20 URL-safe characters and sort by creation time, which is
// what makes "ORDER BY created_at, id" a stable creation order even when
// two cases land in the same clock tick.
func (db *DB) Create(ctx context.Context, c *model.Case) error {
	c.ID = xid.New().String()

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO cases (id, owner_id, title, description, priority, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.OwnerID,
		c.Title,
		c.Description,
		string(c.Priority),
		string(c.Status),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating case: %w", err)
	}

	return nil
}

// GetByID retrieves a single case. Ownership is NOT checked here — that is
// the service guard's job; the repository answers only "does this row exist".
func (db *DB) GetByID(ctx context.Context, id string) (*model.Case, error) {
	var c model.Case

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, priority, status, created_at, updated_at
		 FROM cases
		 WHERE id = ?`,
		id,
	).Scan(
		&c.ID,
		&c.OwnerID,
		&c.Title,
		&c.Description,
		&c.Priority,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("case", id)
		}
		return nil, fmt.Errorf("sqlite: getting case %s: %w", id, err)
	}

	return &c, nil
}

// ListByOwner returns all cases owned by ownerID in creation order.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Case, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, title, description, priority, status, created_at, updated_at
		 FROM cases
		 WHERE owner_id = ?
		 ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cases for %s: %w", ownerID, err)
	}
	defer rows.Close()

	cases := make([]model.Case, 0, 8)
	for rows.Next() {
		var c model.Case
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Title, &c.Description,
			&c.Priority, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning case row: %w", err)
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cases: %w", err)
	}

	return cases, nil
}

// UpdateStatus changes a case's status and refreshes updated_at.
// RowsAffected detects the not-found case without a prior SELECT.
func (db *DB) UpdateStatus(ctx context.Context, id string, status model.CaseStatus, updatedAt time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE cases SET status = ?, updated_at = ? WHERE id = ?`,
		string(status),
		updatedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating case %s status: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("case", id)
	}

	return nil
}

// Touch refreshes a case's updated_at, used when targets are attached.
func (db *DB) Touch(ctx context.Context, id string, updatedAt time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE cases SET updated_at = ? WHERE id = ?`,
		updatedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching case %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("case", id)
	}

	return nil
}

// Delete removes a case and all of its targets in one transaction. Targets
// go first so the foreign key on targets.case_id is never violated.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM targets WHERE case_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting targets of case %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting case %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("case", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of case %s: %w", id, err)
	}

	return nil
}

// CountDistinctOwners counts users with at least one case, for the public
// marketing stats.
func (db *DB) CountDistinctOwners(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT owner_id) FROM cases`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting case owners: %w", err)
	}
	return n, nil
}
