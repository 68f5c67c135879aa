package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/contentguard/internal/model"
	"github.com/sakif/contentguard/internal/repository"
)

// Compile-time check that *DB implements repository.TargetRepository.
var _ repository.TargetRepository = (*DB)(nil)

// CreateBatch inserts all targets inside a single transaction: either every
// target is persisted or none are. The service relies on this for the
// all-or-nothing addTargets contract — a caller must never be left
// guessing which URLs from its list made it in.
//
// Each pointer is modified in place with its generated ID and CreatedAt.
// On rollback the IDs are left assigned but the rows don't exist; callers
// discard the slice on error.
func (db *DB) CreateBatch(ctx context.Context, targets []*model.Target) error {
	if len(targets) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning target batch: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO targets (id, case_id, url, domain, status, last_checked_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("sqlite: preparing target insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()

	for _, target := range targets {
		target.ID = xid.New().String()
		target.CreatedAt = now

		if _, err := stmt.ExecContext(ctx,
			target.ID,
			target.CaseID,
			target.URL,
			target.Domain,
			string(target.Status),
			target.LastCheckedAt,
			target.CreatedAt,
		); err != nil {
			return fmt.Errorf("sqlite: inserting target %s: %w", target.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing target batch: %w", err)
	}

	return nil
}

// ListByCase returns the targets of a case in creation order. xid IDs break
// ties between targets inserted in the same batch (same created_at) because
// they are themselves time-ordered.
func (db *DB) ListByCase(ctx context.Context, caseID string) ([]model.Target, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, case_id, url, domain, status, last_checked_at, created_at
		 FROM targets
		 WHERE case_id = ?
		 ORDER BY created_at, id`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing targets for case %s: %w", caseID, err)
	}
	defer rows.Close()

	targets := make([]model.Target, 0, 8)
	for rows.Next() {
		var t model.Target
		if err := rows.Scan(
			&t.ID, &t.CaseID, &t.URL, &t.Domain,
			&t.Status, &t.LastCheckedAt, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning target row: %w", err)
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating targets: %w", err)
	}

	return targets, nil
}

// CountTargetsByStatus counts targets in the given status across all
// cases, for the public marketing stats.
func (db *DB) CountTargetsByStatus(ctx context.Context, status model.TargetStatus) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM targets WHERE status = ?`,
		string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting targets by status: %w", err)
	}
	return n, nil
}
