package repository

import (
	"context"

	"github.com/sakif/code-runner/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// RunRepository stores execution metadata records. Implementations
// must be safe for concurrent use; the coordinator writes from every
// request goroutine.
type RunRepository interface {
	Create(ctx context.Context, run *model.Run) error
	GetByID(ctx context.Context, id string) (*model.Run, error)
	List(ctx context.Context, opts ListOptions) ([]model.Run, error)
}
