package model

import "time"

// TargetStatus is the persisted lifecycle state of a single target URL.
//
// A target's status machine is independent of its parent case's: a case can
// be in_review while half its targets are already removed. Dashboard
// aggregates are computed read-side from cases, never written back here.
type TargetStatus string

const (
	TargetPending TargetStatus = "pending"
	TargetFiled   TargetStatus = "filed"
	TargetRemoved TargetStatus = "removed"
	TargetDenied  TargetStatus = "denied"
	TargetFailed  TargetStatus = "failed"
)

// Valid reports whether s is one of the defined target statuses.
func (s TargetStatus) Valid() bool {
	switch s {
	case TargetPending, TargetFiled, TargetRemoved, TargetDenied, TargetFailed:
		return true
	}
	return false
}

// Target is one unauthorized-content URL attached to a case.
//
// Domain is denormalized from the URL's host at creation time so listings
// and per-domain reporting don't re-parse URLs. It is always recomputable
// from URL and never independently editable.
//
// LastCheckedAt is set when a monitoring pass touches the target. The
// monitoring automation itself lives outside this service; only the field
// contract is ours.
type Target struct {
	ID            string       `json:"id"`
	CaseID        string       `json:"case_id"`
	URL           string       `json:"url"`
	Domain        string       `json:"domain"`
	Status        TargetStatus `json:"status"`
	LastCheckedAt *time.Time   `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
