package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/code-runner/internal/apperror"
	"github.com/sakif/code-runner/internal/model"
)

func newTestRunService(repo *mockRunRepo) *RunService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRunService(repo, logger)
}

func TestRunsGetByID_Success(t *testing.T) {
	repo := &mockRunRepo{runs: []model.Run{{ID: "r1", Language: "python", Status: "completed"}}}
	svc := newTestRunService(repo)

	run, err := svc.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if run.Language != "python" {
		t.Errorf("Language = %q, want %q", run.Language, "python")
	}
}

func TestRunsGetByID_NotFound(t *testing.T) {
	svc := newTestRunService(&mockRunRepo{})

	_, err := svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRunsGetByID_EmptyID(t *testing.T) {
	svc := newTestRunService(&mockRunRepo{})

	_, err := svc.GetByID(context.Background(), "  ")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestRunsList(t *testing.T) {
	repo := &mockRunRepo{runs: []model.Run{
		{ID: "r1", Status: "completed"},
		{ID: "r2", Status: "timed_out"},
		{ID: "r3", Status: "completed"},
	}}
	svc := newTestRunService(repo)

	runs, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("List() returned %d runs, want 3", len(runs))
	}
}

func TestRunsList_RepositoryError(t *testing.T) {
	repo := &mockRunRepo{listErr: errors.New("disk I/O error")}
	svc := newTestRunService(repo)

	_, err := svc.List(context.Background(), 0, 0)
	if err == nil {
		t.Fatal("List() should propagate repository errors")
	}
}
