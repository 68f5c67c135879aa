package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/contentguard/internal/model"
	"github.com/sakif/contentguard/internal/repository"
)

// Marketing floors and fixed figures for the public counters. The floors
// keep the landing page from advertising "3 files removed" while the
// service is young; once real volume passes them, real numbers show.
const (
	minFilesRemoved  = 10000
	minActiveClients = 250
	successRatePct   = 98
	avgResponseHours = 24
)

// PublicStats are the unauthenticated marketing counters shown on the
// landing page. Field names match what the frontend renders.
type PublicStats struct {
	FilesRemoved    int `json:"filesRemoved"`
	ActiveClients   int `json:"activeClients"`
	SuccessRate     int `json:"successRate"`
	AvgResponseTime int `json:"avgResponseTime"`
}

// StatsService computes the public marketing counters. It is a display
// collaborator, not part of the case lifecycle: nothing here feeds back
// into case or target state.
type StatsService struct {
	cases   repository.CaseRepository
	targets repository.TargetRepository
	logger  *slog.Logger
}

func NewStatsService(
	cases repository.CaseRepository,
	targets repository.TargetRepository,
	logger *slog.Logger,
) *StatsService {
	return &StatsService{cases: cases, targets: targets, logger: logger}
}

// Public returns the current marketing counters.
func (s *StatsService) Public(ctx context.Context) (*PublicStats, error) {
	removed, err := s.targets.CountTargetsByStatus(ctx, model.TargetRemoved)
	if err != nil {
		s.logger.Error("failed to count removed targets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting removed targets: %w", err)
	}

	clients, err := s.cases.CountDistinctOwners(ctx)
	if err != nil {
		s.logger.Error("failed to count active clients", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting active clients: %w", err)
	}

	return &PublicStats{
		FilesRemoved:    max(removed, minFilesRemoved),
		ActiveClients:   max(clients, minActiveClients),
		SuccessRate:     successRatePct,
		AvgResponseTime: avgResponseHours,
	}, nil
}
