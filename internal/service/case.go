// Package service contains the business logic layer.
//
// Services accept primitives plus the resolved requester ID, return domain
// errors from apperror, and know nothing about HTTP. The handler layer
// parses requests and translates errors to status codes; the repository
// layer owns SQL. Dependencies flow in from the composition root in
// internal/server.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/contentguard/internal/apperror"
	"github.com/sakif/contentguard/internal/model"
	"github.com/sakif/contentguard/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxTargetsPerRequest = 100
)

// Metrics is the subset of the metrics collector the case service records
// to. A no-op implementation is used when metrics are disabled (and in
// most tests).
type Metrics interface {
	RecordCaseCreated()
	RecordTargetsAdded(count int)
}

// NopMetrics is a Metrics implementation that records nothing.
type NopMetrics struct{}

func (NopMetrics) RecordCaseCreated()     {}
func (NopMetrics) RecordTargetsAdded(int) {}

// CaseService orchestrates takedown cases and their targets.
//
// Every operation takes the requester's resolved user ID as an explicit
// parameter — identity is never read from ambient state. Ownership
// enforcement is centralized in authorizeCase; each case-scoped operation
// goes through it before touching case-owned data.
type CaseService struct {
	cases   repository.CaseRepository
	targets repository.TargetRepository
	metrics Metrics
	logger  *slog.Logger
}

// NewCaseService creates a CaseService. Pass NopMetrics{} when metrics are
// not wired.
func NewCaseService(
	cases repository.CaseRepository,
	targets repository.TargetRepository,
	metrics Metrics,
	logger *slog.Logger,
) *CaseService {
	return &CaseService{
		cases:   cases,
		targets: targets,
		metrics: metrics,
		logger:  logger,
	}
}

// authorizeCase is the ownership guard: it loads the case and verifies the
// requester owns it.
//
// A case owned by someone else yields the same NotFound as a case that
// doesn't exist. Returning anything distinguishable (a 403, a different
// message) would let a non-owner probe which case IDs exist, so the two
// conditions are merged here, in the one place every case-scoped operation
// passes through.
func (s *CaseService) authorizeCase(ctx context.Context, caseID, requesterID string) (*model.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != requesterID {
		return nil, apperror.NotFound("case", caseID)
	}
	return c, nil
}

// CreateCase validates and persists a new case for ownerID.
//
// The case always starts life as submitted with CreatedAt == UpdatedAt;
// status changes come later through UpdateStatus. An empty priority means
// normal; anything else must be a defined priority.
func (s *CaseService) CreateCase(ctx context.Context, ownerID, title, description string, priority model.Priority) (*model.Case, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "case title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("case title must be %d characters or less", MaxTitleLength))
	}
	if description == "" {
		return nil, apperror.ValidationFailed("description", "case description is required")
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("case description must be %d characters or less", MaxDescriptionLength))
	}

	if priority == "" {
		priority = model.PriorityNormal
	}
	if !priority.Valid() {
		return nil, apperror.ValidationFailed("priority",
			fmt.Sprintf("priority must be one of normal, high, urgent (got %q)", priority))
	}

	c := &model.Case{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      model.CaseSubmitted,
	}

	if err := s.cases.Create(ctx, c); err != nil {
		s.logger.Error("failed to create case",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating case: %w", err)
	}

	s.metrics.RecordCaseCreated()
	s.logger.Info("case created",
		slog.String("id", c.ID),
		slog.String("ownerID", ownerID),
		slog.String("priority", string(c.Priority)),
	)

	return c, nil
}

// GetCase returns the case if it exists and belongs to requesterID.
func (s *CaseService) GetCase(ctx context.Context, caseID, requesterID string) (*model.Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, apperror.ValidationFailed("id", "case ID is required")
	}

	return s.authorizeCase(ctx, caseID, requesterID)
}

// ListCases returns all of ownerID's cases in creation order. The order is
// stable across calls absent mutation.
func (s *CaseService) ListCases(ctx context.Context, ownerID string) ([]model.Case, error) {
	cases, err := s.cases.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list cases",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing cases: %w", err)
	}

	return cases, nil
}

// UpdateStatus moves a case to a new lifecycle status and refreshes
// UpdatedAt. The transition itself is operator-driven; this service only
// checks that the value is a defined status and that the requester owns
// the case.
func (s *CaseService) UpdateStatus(ctx context.Context, caseID, requesterID string, status model.CaseStatus) (*model.Case, error) {
	if !status.Valid() {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of submitted, filed, in_review, removed, denied (got %q)", status))
	}

	c, err := s.authorizeCase(ctx, caseID, requesterID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.cases.UpdateStatus(ctx, c.ID, status, now); err != nil {
		s.logger.Error("failed to update case status",
			slog.String("id", c.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating case status: %w", err)
	}

	c.Status = status
	c.UpdatedAt = now

	s.logger.Info("case status updated",
		slog.String("id", c.ID),
		slog.String("status", string(status)),
	)

	return c, nil
}

// DeleteCase removes a case and all of its targets. The repository does
// the two deletes in one transaction, so a case is never left behind
// without its targets or vice versa.
func (s *CaseService) DeleteCase(ctx context.Context, caseID, requesterID string) error {
	c, err := s.authorizeCase(ctx, caseID, requesterID)
	if err != nil {
		return err
	}

	if err := s.cases.Delete(ctx, c.ID); err != nil {
		s.logger.Error("failed to delete case",
			slog.String("id", c.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting case: %w", err)
	}

	s.logger.Info("case deleted", slog.String("id", c.ID))
	return nil
}

// AddTargets attaches target URLs to a case.
//
// The call is all-or-nothing: every URL is validated before anything is
// created, and the repository inserts the batch in one transaction. One
// malformed URL rejects the whole request and leaves the case's target set
// unchanged — a partial insert would leave the caller unable to tell which
// URLs made it in.
//
// Attaching targets counts as a mutation of the case, so its UpdatedAt is
// refreshed.
func (s *CaseService) AddTargets(ctx context.Context, caseID, requesterID string, urls []string) ([]*model.Target, error) {
	c, err := s.authorizeCase(ctx, caseID, requesterID)
	if err != nil {
		return nil, err
	}

	if len(urls) == 0 {
		return nil, apperror.ValidationFailed("urls", "at least one URL is required")
	}
	if len(urls) > MaxTargetsPerRequest {
		return nil, apperror.ValidationFailed("urls",
			fmt.Sprintf("at most %d URLs per request (got %d)", MaxTargetsPerRequest, len(urls)))
	}

	// Validate everything before creating anything.
	targets := make([]*model.Target, 0, len(urls))
	for _, raw := range urls {
		domain, err := DeriveDomain(raw)
		if err != nil {
			return nil, apperror.ValidationFailed("urls",
				fmt.Sprintf("invalid target URL %q: %v", raw, err))
		}
		targets = append(targets, &model.Target{
			CaseID: c.ID,
			URL:    strings.TrimSpace(raw),
			Domain: domain,
			Status: model.TargetPending,
		})
	}

	if err := s.targets.CreateBatch(ctx, targets); err != nil {
		s.logger.Error("failed to add targets",
			slog.String("caseID", c.ID),
			slog.Int("count", len(targets)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding targets: %w", err)
	}

	if err := s.cases.Touch(ctx, c.ID, time.Now().UTC()); err != nil {
		// The targets are already committed; a failed touch only leaves a
		// stale updated_at. Log it rather than failing the request.
		s.logger.Warn("failed to touch case after adding targets",
			slog.String("caseID", c.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.RecordTargetsAdded(len(targets))
	s.logger.Info("targets added",
		slog.String("caseID", c.ID),
		slog.Int("count", len(targets)),
	)

	return targets, nil
}

// ListTargets returns the case's targets in creation order.
func (s *CaseService) ListTargets(ctx context.Context, caseID, requesterID string) ([]model.Target, error) {
	c, err := s.authorizeCase(ctx, caseID, requesterID)
	if err != nil {
		return nil, err
	}

	targets, err := s.targets.ListByCase(ctx, c.ID)
	if err != nil {
		s.logger.Error("failed to list targets",
			slog.String("caseID", c.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing targets: %w", err)
	}

	return targets, nil
}

// DeriveDomain extracts the lowercase host from a target URL.
//
// The URL must be absolute with an http or https scheme and a non-empty
// host — "not-a-url" and "ftp://x" are both rejected. The derivation is
// deterministic and pure: recomputing it from a stored URL always yields
// the persisted domain. Any port is stripped; "https://Example.com:8443/a"
// and "https://example.com/b" share the domain "example.com".
func DeriveDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("url does not parse: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url must be absolute with scheme http or https")
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url has no host")
	}

	return strings.ToLower(u.Hostname()), nil
}
