package model

import "time"

// CaseStatus is the persisted lifecycle state of a takedown case.
//
// Transitions are driven by back-office action, not computed here: an
// operator moves a case from submitted → filed → in_review and finally to
// removed or denied. The API accepts a status change on an authorized
// mutation but never derives one from the case's targets.
type CaseStatus string

const (
	CaseSubmitted CaseStatus = "submitted"
	CaseFiled     CaseStatus = "filed"
	CaseInReview  CaseStatus = "in_review"
	CaseRemoved   CaseStatus = "removed"
	CaseDenied    CaseStatus = "denied"
)

// Valid reports whether s is one of the defined case statuses.
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseSubmitted, CaseFiled, CaseInReview, CaseRemoved, CaseDenied:
		return true
	}
	return false
}

// Priority is the client-selected urgency of a case.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Case is a single takedown request, owned by exactly one user.
//
// OwnerID is set at creation and never reassigned. Only the owner may read
// or mutate the case or anything attached to it — that check lives in the
// service layer's ownership guard, not here.
//
// UpdatedAt is refreshed on every mutation of the case itself and when
// targets are attached to it.
type Case struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"client_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      CaseStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
