package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sakif/contentguard/internal/apperror"
	"github.com/sakif/contentguard/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
// Hand-written in-memory implementations of the repository interfaces.
// The service doesn't know which implementation it gets — that's the point
// of programming against the interfaces.

type mockCaseRepo struct {
	cases  map[string]*model.Case
	order  []string // creation order of IDs
	nextID int

	failCreate error // when set, Create returns this
}

func newMockCaseRepo() *mockCaseRepo {
	return &mockCaseRepo{cases: make(map[string]*model.Case)}
}

func (m *mockCaseRepo) Create(_ context.Context, c *model.Case) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	m.nextID++
	c.ID = fmt.Sprintf("case-%d", m.nextID)
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	stored := *c
	m.cases[c.ID] = &stored
	m.order = append(m.order, c.ID)
	return nil
}

func (m *mockCaseRepo) GetByID(_ context.Context, id string) (*model.Case, error) {
	c, ok := m.cases[id]
	if !ok {
		return nil, apperror.NotFound("case", id)
	}
	result := *c
	return &result, nil
}

func (m *mockCaseRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Case, error) {
	result := make([]model.Case, 0, len(m.order))
	for _, id := range m.order {
		if m.cases[id].OwnerID == ownerID {
			result = append(result, *m.cases[id])
		}
	}
	return result, nil
}

func (m *mockCaseRepo) UpdateStatus(_ context.Context, id string, status model.CaseStatus, updatedAt time.Time) error {
	c, ok := m.cases[id]
	if !ok {
		return apperror.NotFound("case", id)
	}
	c.Status = status
	c.UpdatedAt = updatedAt
	return nil
}

func (m *mockCaseRepo) Touch(_ context.Context, id string, updatedAt time.Time) error {
	c, ok := m.cases[id]
	if !ok {
		return apperror.NotFound("case", id)
	}
	c.UpdatedAt = updatedAt
	return nil
}

func (m *mockCaseRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.cases[id]; !ok {
		return apperror.NotFound("case", id)
	}
	delete(m.cases, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockCaseRepo) CountDistinctOwners(_ context.Context) (int, error) {
	owners := make(map[string]bool)
	for _, c := range m.cases {
		owners[c.OwnerID] = true
	}
	return len(owners), nil
}

type mockTargetRepo struct {
	targets map[string][]*model.Target // keyed by case ID
	nextID  int

	failBatch error // when set, CreateBatch returns this
}

func newMockTargetRepo() *mockTargetRepo {
	return &mockTargetRepo{targets: make(map[string][]*model.Target)}
}

func (m *mockTargetRepo) CreateBatch(_ context.Context, targets []*model.Target) error {
	if m.failBatch != nil {
		return m.failBatch
	}
	now := time.Now().UTC()
	for _, t := range targets {
		m.nextID++
		t.ID = fmt.Sprintf("target-%d", m.nextID)
		t.CreatedAt = now
		stored := *t
		m.targets[t.CaseID] = append(m.targets[t.CaseID], &stored)
	}
	return nil
}

func (m *mockTargetRepo) ListByCase(_ context.Context, caseID string) ([]model.Target, error) {
	list := m.targets[caseID]
	result := make([]model.Target, 0, len(list))
	for _, t := range list {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTargetRepo) CountTargetsByStatus(_ context.Context, status model.TargetStatus) (int, error) {
	n := 0
	for _, list := range m.targets {
		for _, t := range list {
			if t.Status == status {
				n++
			}
		}
	}
	return n, nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestCaseService(t *testing.T) (*CaseService, *mockCaseRepo, *mockTargetRepo) {
	t.Helper()
	cases := newMockCaseRepo()
	targets := newMockTargetRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewCaseService(cases, targets, NopMetrics{}, logger)
	return svc, cases, targets
}

func createTestCase(t *testing.T, svc *CaseService, ownerID string) *model.Case {
	t.Helper()
	c, err := svc.CreateCase(context.Background(), ownerID, "Leak on example.com", "Pirated copies of my course", "")
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	return c
}

// =========================================================================
// CREATE CASE TESTS
// =========================================================================

func TestCreateCase_Success(t *testing.T) {
	svc, _, _ := newTestCaseService(t)

	c, err := svc.CreateCase(context.Background(), "user-1", "Leak on example.com", "details", model.PriorityNormal)
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	if c.ID == "" {
		t.Error("expected case to have an ID")
	}
	if c.OwnerID != "user-1" {
		t.Errorf("OwnerID = %q, want %q", c.OwnerID, "user-1")
	}
	if c.Status != model.CaseSubmitted {
		t.Errorf("Status = %q, want %q", c.Status, model.CaseSubmitted)
	}
	if !c.CreatedAt.Equal(c.UpdatedAt) {
		t.Errorf("CreatedAt (%v) should equal UpdatedAt (%v) on creation", c.CreatedAt, c.UpdatedAt)
	}
}

func TestCreateCase_EmptyPriorityDefaultsToNormal(t *testing.T) {
	svc, _, _ := newTestCaseService(t)

	c, err := svc.CreateCase(context.Background(), "user-1", "title", "desc", "")
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if c.Priority != model.PriorityNormal {
		t.Errorf("Priority = %q, want %q", c.Priority, model.PriorityNormal)
	}
}

func TestCreateCase_Validation(t *testing.T) {
	svc, _, _ := newTestCaseService(t)

	tests := []struct {
		name        string
		title       string
		description string
		priority    model.Priority
	}{
		{name: "empty title", title: "", description: "desc"},
		{name: "whitespace-only title", title: "   ", description: "desc"},
		{name: "empty description", title: "title", description: ""},
		{name: "title too long", title: strings.Repeat("a", MaxTitleLength+1), description: "desc"},
		{name: "description too long", title: "title", description: strings.Repeat("a", MaxDescriptionLength+1)},
		{name: "unknown priority", title: "title", description: "desc", priority: "asap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCase(context.Background(), "user-1", tt.title, tt.description, tt.priority)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateCase_RepoFailure(t *testing.T) {
	svc, cases, _ := newTestCaseService(t)
	cases.failCreate = errors.New("disk full")

	_, err := svc.CreateCase(context.Background(), "user-1", "title", "desc", "")
	if err == nil {
		t.Fatal("CreateCase() should propagate repository failure")
	}
}

// =========================================================================
// OWNERSHIP GUARD TESTS
// =========================================================================

func TestGetCase_OwnerSees(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	got, err := svc.GetCase(context.Background(), created.ID, "user-1")
	if err != nil {
		t.Fatalf("GetCase() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
}

func TestGetCase_NonOwnerGetsSameNotFoundAsMissing(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	// A non-owner probing an existing ID and anyone asking for a missing
	// ID must be indistinguishable: same sentinel, same message shape.
	_, errNotOwned := svc.GetCase(context.Background(), created.ID, "user-2")
	_, errMissing := svc.GetCase(context.Background(), "case-nope", "user-2")

	if !errors.Is(errNotOwned, apperror.ErrNotFound) {
		t.Fatalf("non-owner error = %v, want ErrNotFound", errNotOwned)
	}
	if !errors.Is(errMissing, apperror.ErrNotFound) {
		t.Fatalf("missing-case error = %v, want ErrNotFound", errMissing)
	}

	var appNotOwned, appMissing *apperror.AppError
	if !errors.As(errNotOwned, &appNotOwned) || !errors.As(errMissing, &appMissing) {
		t.Fatal("both errors should be AppErrors")
	}
	wantOwned := apperror.NotFound("case", created.ID).Message
	if appNotOwned.Message != wantOwned {
		t.Errorf("non-owner message = %q, want %q", appNotOwned.Message, wantOwned)
	}
}

func TestOwnershipGuard_CoversAllCaseScopedOperations(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")
	ctx := context.Background()

	ops := []struct {
		name string
		call func() error
	}{
		{"GetCase", func() error { _, err := svc.GetCase(ctx, created.ID, "intruder"); return err }},
		{"UpdateStatus", func() error {
			_, err := svc.UpdateStatus(ctx, created.ID, "intruder", model.CaseFiled)
			return err
		}},
		{"DeleteCase", func() error { return svc.DeleteCase(ctx, created.ID, "intruder") }},
		{"AddTargets", func() error {
			_, err := svc.AddTargets(ctx, created.ID, "intruder", []string{"https://example.com/a"})
			return err
		}},
		{"ListTargets", func() error { _, err := svc.ListTargets(ctx, created.ID, "intruder"); return err }},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			if err := op.call(); !errors.Is(err, apperror.ErrNotFound) {
				t.Errorf("%s by non-owner: error = %v, want ErrNotFound", op.name, err)
			}
		})
	}
}

// =========================================================================
// LIST CASES TESTS
// =========================================================================

func TestListCases_OnlyOwnersCases(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	createTestCase(t, svc, "user-1")
	createTestCase(t, svc, "user-2")
	createTestCase(t, svc, "user-1")

	cases, err := svc.ListCases(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("len(cases) = %d, want 2", len(cases))
	}
	for _, c := range cases {
		if c.OwnerID != "user-1" {
			t.Errorf("case %s owned by %q leaked into user-1's list", c.ID, c.OwnerID)
		}
	}
}

func TestListCases_StableOrder(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	first := createTestCase(t, svc, "user-1")
	second := createTestCase(t, svc, "user-1")

	for i := 0; i < 3; i++ {
		cases, err := svc.ListCases(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("ListCases() error = %v", err)
		}
		if cases[0].ID != first.ID || cases[1].ID != second.ID {
			t.Fatalf("call %d: order = [%s, %s], want [%s, %s]",
				i, cases[0].ID, cases[1].ID, first.ID, second.ID)
		}
	}
}

// =========================================================================
// UPDATE STATUS / DELETE TESTS
// =========================================================================

func TestUpdateStatus_RefreshesUpdatedAt(t *testing.T) {
	svc, cases, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	updated, err := svc.UpdateStatus(context.Background(), created.ID, "user-1", model.CaseFiled)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	if updated.Status != model.CaseFiled {
		t.Errorf("Status = %q, want %q", updated.Status, model.CaseFiled)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v < %v", updated.UpdatedAt, created.UpdatedAt)
	}

	stored, _ := cases.GetByID(context.Background(), created.ID)
	if stored.Status != model.CaseFiled {
		t.Errorf("stored Status = %q, want %q", stored.Status, model.CaseFiled)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	_, err := svc.UpdateStatus(context.Background(), created.ID, "user-1", "escalated")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestDeleteCase_GoneAfterwards(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	if err := svc.DeleteCase(context.Background(), created.ID, "user-1"); err != nil {
		t.Fatalf("DeleteCase() error = %v", err)
	}

	if _, err := svc.GetCase(context.Background(), created.ID, "user-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCase after delete: error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ADD TARGETS TESTS
// =========================================================================

func TestAddTargets_Success(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	targets, err := svc.AddTargets(context.Background(), created.ID, "user-1",
		[]string{"https://example.com/a", "https://example.com/b"})
	if err != nil {
		t.Fatalf("AddTargets() error = %v", err)
	}

	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}
	for _, target := range targets {
		if target.Domain != "example.com" {
			t.Errorf("Domain = %q, want %q", target.Domain, "example.com")
		}
		if target.Status != model.TargetPending {
			t.Errorf("Status = %q, want %q", target.Status, model.TargetPending)
		}
		if target.CaseID != created.ID {
			t.Errorf("CaseID = %q, want %q", target.CaseID, created.ID)
		}
	}
}

func TestAddTargets_TouchesCase(t *testing.T) {
	svc, cases, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	// Force a visible gap so Touch moves the timestamp.
	stored := cases.cases[created.ID]
	stored.UpdatedAt = stored.UpdatedAt.Add(-time.Minute)
	before := stored.UpdatedAt

	if _, err := svc.AddTargets(context.Background(), created.ID, "user-1",
		[]string{"https://example.com/a"}); err != nil {
		t.Fatalf("AddTargets() error = %v", err)
	}

	if after := cases.cases[created.ID].UpdatedAt; !after.After(before) {
		t.Errorf("UpdatedAt not refreshed: %v <= %v", after, before)
	}
}

func TestAddTargets_OneBadURLRejectsWholeCall(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")
	ctx := context.Background()

	if _, err := svc.AddTargets(ctx, created.ID, "user-1",
		[]string{"https://example.com/a", "https://example.com/b"}); err != nil {
		t.Fatalf("seeding targets: %v", err)
	}

	_, err := svc.AddTargets(ctx, created.ID, "user-1",
		[]string{"https://example.com/c", "not-a-url"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	// The rejection must leave the target set untouched — the two seeded
	// targets and nothing else.
	targets, err := svc.ListTargets(ctx, created.ID, "user-1")
	if err != nil {
		t.Fatalf("ListTargets() error = %v", err)
	}
	if len(targets) != 2 {
		t.Errorf("len(targets) = %d after rejected call, want 2", len(targets))
	}
}

func TestAddTargets_EmptyList(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	_, err := svc.AddTargets(context.Background(), created.ID, "user-1", nil)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestAddTargets_TooMany(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	urls := make([]string, MaxTargetsPerRequest+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/%d", i)
	}

	_, err := svc.AddTargets(context.Background(), created.ID, "user-1", urls)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestListTargets_StableOrder(t *testing.T) {
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")
	ctx := context.Background()

	added, err := svc.AddTargets(ctx, created.ID, "user-1",
		[]string{"https://example.com/a", "https://example.com/b"})
	if err != nil {
		t.Fatalf("AddTargets() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		targets, err := svc.ListTargets(ctx, created.ID, "user-1")
		if err != nil {
			t.Fatalf("ListTargets() error = %v", err)
		}
		if len(targets) != 2 {
			t.Fatalf("len(targets) = %d, want 2", len(targets))
		}
		if targets[0].ID != added[0].ID || targets[1].ID != added[1].ID {
			t.Fatalf("call %d: order changed", i)
		}
	}
}

// =========================================================================
// DOMAIN DERIVATION TESTS
// =========================================================================

func TestDeriveDomain(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain https", url: "https://example.com/a", want: "example.com"},
		{name: "plain http", url: "http://example.com", want: "example.com"},
		{name: "mixed-case host lowered", url: "https://Example.COM/path", want: "example.com"},
		{name: "port stripped", url: "https://example.com:8443/a", want: "example.com"},
		{name: "subdomain kept", url: "https://cdn.files.example.com/x", want: "cdn.files.example.com"},
		{name: "surrounding whitespace", url: "  https://example.com/a  ", want: "example.com"},
		{name: "query and fragment ignored", url: "https://example.com/a?b=c#d", want: "example.com"},
		{name: "not a url", url: "not-a-url", wantErr: true},
		{name: "relative path", url: "/just/a/path", wantErr: true},
		{name: "missing scheme", url: "example.com/a", wantErr: true},
		{name: "unsupported scheme", url: "ftp://example.com/a", wantErr: true},
		{name: "scheme only", url: "https://", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveDomain(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("DeriveDomain(%q) = %q, want error", tt.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveDomain(%q) error = %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("DeriveDomain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestDeriveDomain_RoundTrip(t *testing.T) {
	// Recomputing the domain from a persisted URL must always reproduce
	// the domain persisted at creation.
	svc, _, _ := newTestCaseService(t)
	created := createTestCase(t, svc, "user-1")

	targets, err := svc.AddTargets(context.Background(), created.ID, "user-1",
		[]string{"https://Example.com:443/a", "http://cdn.example.org/b"})
	if err != nil {
		t.Fatalf("AddTargets() error = %v", err)
	}

	for _, target := range targets {
		recomputed, err := DeriveDomain(target.URL)
		if err != nil {
			t.Fatalf("DeriveDomain(%q) error = %v", target.URL, err)
		}
		if recomputed != target.Domain {
			t.Errorf("recomputed domain %q != persisted %q for %q", recomputed, target.Domain, target.URL)
		}
	}
}
