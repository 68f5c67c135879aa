// Package repository declares the persistence interfaces the service layer
// depends on. Services program against these interfaces; the sqlite
// subpackage provides the real implementation and tests substitute mocks.
//
// A single sqlite.DB implements all of them, so method names are
// disambiguated per entity (GetUserByID vs GetByID, and so on).
package repository

import (
	"context"
	"time"

	"github.com/sakif/contentguard/internal/model"
)

type UserRepository interface {
	// Upsert inserts the user on first login and refreshes the stored
	// profile on subsequent logins. The provider's ID is the primary key.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// GetSessionByToken returns the live session for the token. Expired
	// sessions are purged and reported as not found.
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type CaseRepository interface {
	Create(ctx context.Context, c *model.Case) error
	GetByID(ctx context.Context, id string) (*model.Case, error)
	// ListByOwner returns the owner's cases in creation order. The order is
	// stable across calls absent mutation.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Case, error)
	UpdateStatus(ctx context.Context, id string, status model.CaseStatus, updatedAt time.Time) error
	// Touch refreshes a case's updated_at without other changes.
	Touch(ctx context.Context, id string, updatedAt time.Time) error
	// Delete removes the case and all of its targets in one transaction.
	Delete(ctx context.Context, id string) error
	// CountDistinctOwners counts users with at least one case.
	CountDistinctOwners(ctx context.Context) (int, error)
}

type TargetRepository interface {
	// CreateBatch inserts all targets in a single transaction: either every
	// target is persisted or none are.
	CreateBatch(ctx context.Context, targets []*model.Target) error
	ListByCase(ctx context.Context, caseID string) ([]model.Target, error)
	CountTargetsByStatus(ctx context.Context, status model.TargetStatus) (int, error)
}
