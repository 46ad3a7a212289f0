package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/code-runner/internal/apperror"
	"github.com/sakif/code-runner/internal/model"
	"github.com/sakif/code-runner/internal/repository"
)

// Compile-time check that *DB implements repository.RunRepository.
var _ repository.RunRepository = (*DB)(nil)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Create inserts one run record. The coordinator assigns the ID (it is
// the same xid that prefixed the workspace name), so nothing is
// generated here beyond the timestamp.
func (db *DB) Create(ctx context.Context, run *model.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO runs (id, language, status, exit_code, signal, timed_out, truncated,
		                   stdout_bytes, stderr_bytes, duration_ms, engine, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Language,
		run.Status,
		run.ExitCode,
		run.Signal,
		run.TimedOut,
		run.Truncated,
		run.StdoutBytes,
		run.StderrBytes,
		run.DurationMS,
		run.Engine,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating run: %w", err)
	}

	return nil
}

// GetByID retrieves a single run record by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, language, status, exit_code, signal, timed_out, truncated,
		        stdout_bytes, stderr_bytes, duration_ms, engine, created_at
		 FROM runs WHERE id = ?`,
		id,
	).Scan(
		&run.ID,
		&run.Language,
		&run.Status,
		&run.ExitCode,
		&run.Signal,
		&run.TimedOut,
		&run.Truncated,
		&run.StdoutBytes,
		&run.StderrBytes,
		&run.DurationMS,
		&run.Engine,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("run", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting run %s: %w", id, err)
	}

	return &run, nil
}

// List returns run records newest first. The limit is clamped to a
// sane window; id breaks ties between records created in the same
// timestamp granule (xids sort by creation time).
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, language, status, exit_code, signal, timed_out, truncated,
		        stdout_bytes, stderr_bytes, duration_ms, engine, created_at
		 FROM runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		var run model.Run
		if err := rows.Scan(
			&run.ID,
			&run.Language,
			&run.Status,
			&run.ExitCode,
			&run.Signal,
			&run.TimedOut,
			&run.Truncated,
			&run.StdoutBytes,
			&run.StderrBytes,
			&run.DurationMS,
			&run.Engine,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating runs: %w", err)
	}

	return runs, nil
}
