// Package service contains the business logic layer: the execution
// coordinator that drives one code run end to end, and the query
// service for recorded run history.
//
// Services accept primitives and domain types, never HTTP types, and
// return domain errors (apperror) or outcome values. The handler layer
// owns the translation to status codes and JSON.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/code-runner/internal/apperror"
	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/metrics"
	"github.com/sakif/code-runner/internal/model"
	"github.com/sakif/code-runner/internal/repository"
)

// ExecutionConfig bounds what the coordinator accepts and how much it
// runs at once. Values come from the environment via config.Load.
type ExecutionConfig struct {
	MaxCodeBytes    int    // submissions larger than this are rejected
	MaxConcurrent   int    // executions allowed in flight at once
	InterpreterPath string // overrides the python binary, empty keeps the default
}

// DefaultExecutionConfig returns the limits used when nothing is configured.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		MaxCodeBytes:  64 * 1024,
		MaxConcurrent: 4,
	}
}

// ExecutionService coordinates one run: validate the request, admit it
// through the concurrency limiter, stage a workspace, hand it to the
// engine, assemble the outcome, and record it. Cleanup is deferred so
// the workspace and the slot are released on every path out.
//
// The service never returns an error; every failure mode is folded
// into the Outcome so the transport has exactly one thing to map.
type ExecutionService struct {
	engine       executor.Engine
	stager       executor.Stager
	runs         repository.RunRepository // nil disables run recording
	interpreters map[executor.Language]executor.Interpreter
	maxCodeBytes int
	slots        chan struct{}
	logger       *slog.Logger
}

var _ executor.Runner = (*ExecutionService)(nil)

// NewExecutionService creates the coordinator. The engine and stager are
// injected so tests can substitute fakes; runs may be nil when history
// recording is disabled.
func NewExecutionService(engine executor.Engine, stager executor.Stager, runs repository.RunRepository, cfg ExecutionConfig, logger *slog.Logger) *ExecutionService {
	def := DefaultExecutionConfig()
	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = def.MaxCodeBytes
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}

	interps := executor.DefaultInterpreters()
	if cfg.InterpreterPath != "" {
		py := interps[executor.LanguagePython]
		py.Path = cfg.InterpreterPath
		interps[executor.LanguagePython] = py
	}

	return &ExecutionService{
		engine:       engine,
		stager:       stager,
		runs:         runs,
		interpreters: interps,
		maxCodeBytes: cfg.MaxCodeBytes,
		slots:        make(chan struct{}, cfg.MaxConcurrent),
		logger:       logger,
	}
}

// Execute runs one submission and returns its outcome. Phases run in a
// fixed order: validation, admission, staging, execution, assembly.
// A request that fails validation touches no resources at all.
func (s *ExecutionService) Execute(ctx context.Context, req executor.Request) executor.Outcome {
	out := s.execute(ctx, req)

	metrics.ExecutionsTotal.WithLabelValues(string(out.Status)).Inc()
	if out.Result != nil {
		metrics.ExecutionDuration.Observe(out.Result.Duration.Seconds())
		if out.Result.Truncated {
			metrics.OutputTruncationsTotal.Inc()
		}
	}
	return out
}

func (s *ExecutionService) execute(ctx context.Context, req executor.Request) executor.Outcome {
	interp, err := s.validate(req)
	if err != nil {
		s.logger.Info("execution rejected", slog.String("reason", err.Error()))
		return executor.Rejected(err.Error())
	}

	// Admission is non-blocking: when every slot is taken the request is
	// turned away immediately rather than queued.
	select {
	case s.slots <- struct{}{}:
	default:
		s.logger.Warn("execution dropped, at capacity",
			slog.Int("max_concurrent", cap(s.slots)))
		return executor.Overloaded()
	}
	metrics.ExecutionsActive.Inc()
	defer func() {
		<-s.slots
		metrics.ExecutionsActive.Dec()
	}()

	id := xid.New().String()

	ws, err := s.stager.Stage(req.Code, interp.FileName)
	if err != nil {
		s.logger.Error("workspace staging failed",
			slog.String("run_id", id),
			slog.String("error", err.Error()),
		)
		return executor.InternalError("internal error")
	}
	defer s.stager.Release(ws)

	// The run must finish and clean up even if the caller disconnects,
	// so the engine gets a context that survives request cancellation.
	// The deadline is the engine's own, fixed at construction.
	runCtx := context.WithoutCancel(ctx)

	res, err := s.engine.Execute(runCtx, ws, interp)
	if err != nil {
		s.logger.Error("engine execution failed",
			slog.String("run_id", id),
			slog.String("engine", s.engine.Name()),
			slog.String("error", err.Error()),
		)
		return executor.InternalError("internal error")
	}

	s.record(runCtx, id, req.Language, res)

	if res.TimedOut {
		s.logger.Info("execution timed out",
			slog.String("run_id", id),
			slog.Duration("duration", res.Duration),
			slog.Bool("truncated", res.Truncated),
		)
		return executor.TimedOut(res)
	}

	s.logger.Info("execution completed",
		slog.String("run_id", id),
		slog.Int("exit_code", res.ExitCode),
		slog.Duration("duration", res.Duration),
		slog.Bool("truncated", res.Truncated),
	)
	return executor.Completed(res)
}

// validate checks the request against the language registry and the
// size limit. It touches no resources: no workspace is created and no
// slot is taken for a request that fails here.
func (s *ExecutionService) validate(req executor.Request) (executor.Interpreter, error) {
	interp, ok := s.interpreters[req.Language]
	if !ok {
		return executor.Interpreter{}, apperror.ValidationFailed("language",
			fmt.Sprintf("unsupported language %q", req.Language))
	}
	if strings.TrimSpace(req.Code) == "" {
		return executor.Interpreter{}, apperror.ValidationFailed("code", "code is required")
	}
	if len(req.Code) > s.maxCodeBytes {
		return executor.Interpreter{}, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d bytes or less", s.maxCodeBytes))
	}
	return interp, nil
}

// record persists run metadata for the history API. Recording is
// best-effort: a failed insert is logged and the outcome is returned
// to the caller unchanged. Only sizes and flags are stored, never the
// submitted code or the captured output.
func (s *ExecutionService) record(ctx context.Context, id string, lang executor.Language, res *executor.Result) {
	if s.runs == nil {
		return
	}

	status := executor.StatusCompleted
	if res.TimedOut {
		status = executor.StatusTimedOut
	}

	run := &model.Run{
		ID:          id,
		Language:    string(lang),
		Status:      string(status),
		ExitCode:    res.ExitCode,
		Signal:      res.Signal,
		TimedOut:    res.TimedOut,
		Truncated:   res.Truncated,
		StdoutBytes: len(res.Stdout),
		StderrBytes: len(res.Stderr),
		DurationMS:  res.Duration.Milliseconds(),
		Engine:      s.engine.Name(),
	}

	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Warn("failed to record run",
			slog.String("run_id", id),
			slog.String("error", err.Error()),
		)
	}
}
