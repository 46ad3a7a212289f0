package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/code-runner/internal/apperror"
	"github.com/sakif/code-runner/internal/model"
	"github.com/sakif/code-runner/internal/repository"
)

// RunService answers history queries over recorded runs.
type RunService struct {
	repo   repository.RunRepository
	logger *slog.Logger
}

func NewRunService(repo repository.RunRepository, logger *slog.Logger) *RunService {
	return &RunService{
		repo:   repo,
		logger: logger,
	}
}

// GetByID retrieves one recorded run.
// Returns apperror.ErrNotFound if no run with that ID exists.
func (s *RunService) GetByID(ctx context.Context, id string) (*model.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "run ID is required")
	}

	return s.repo.GetByID(ctx, id)
}

// List retrieves recorded runs, newest first. Limit and offset are
// clamped by the repository, so out-of-range values page safely.
func (s *RunService) List(ctx context.Context, limit, offset int) ([]model.Run, error) {
	runs, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list runs", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	return runs, nil
}
