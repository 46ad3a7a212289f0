// Package process is the default sandbox engine. It runs the staged
// source as a direct child of the service: a fresh process, no shell,
// an explicit environment allow-list, capped output capture, and a
// deadline enforced by killing the whole process group. On Linux it
// additionally applies kernel resource ceilings; network isolation is
// not enforced at this layer (the docker engine provides it).
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/sakif/code-runner/internal/apperror"
	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/executor/workspace"
)

// passthroughEnv lists the only host variables a child may inherit.
// Everything else is withheld; HOME and TMPDIR point into the
// workspace so stray writes land somewhere we delete anyway.
var passthroughEnv = []string{"PATH", "LANG", "LC_ALL"}

// waitGrace bounds how long Wait blocks on pipe drainage after a
// kill, in case a descendant escaped the process group and still
// holds the write ends open.
const waitGrace = 2 * time.Second

// Engine implements executor.Engine with a plain subprocess.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a process engine. It does not verify the interpreter
// exists; a missing binary surfaces per run as a launch error.
func New(cfg Config, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger}
}

func (e *Engine) Name() string { return "process" }

// Execute runs the staged file as the interpreter's sole argument and
// blocks until the child exits or the deadline kills it. A timeout or
// a non-zero exit is reported in the Result; the returned error is
// reserved for runs that never happened (launch failure) or that the
// engine could not observe to completion.
func (e *Engine) Execute(ctx context.Context, ws *workspace.Workspace, interp executor.Interpreter) (*executor.Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	stdout := executor.NewLimitedBuffer(e.cfg.MaxOutputBytes)
	stderr := executor.NewLimitedBuffer(e.cfg.MaxOutputBytes)

	cmd := exec.CommandContext(execCtx, interp.Path, ws.Path)
	cmd.Dir = ws.Dir
	cmd.Env = buildEnv(ws, interp)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	setProcessGroup(cmd)
	// The default Cancel only signals the direct child; submitted code
	// can fork, so the deadline has to take down the whole group.
	cmd.Cancel = func() error { return killTree(cmd) }
	cmd.WaitDelay = waitGrace

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, apperror.Launch(err)
	}
	applyLimits(cmd.Process.Pid, e.cfg, e.logger)

	waitErr := cmd.Wait()

	res := &executor.Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		Duration:  time.Since(start),
	}

	if execCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if res.ExitCode == -1 {
				// Killed by something other than our deadline, e.g. the
				// kernel's OOM handling or its own rlimit.
				res.Signal = signalName(exitErr.ProcessState)
			}
			return res, nil
		}
		return nil, fmt.Errorf("waiting for interpreter: %w", waitErr)
	}

	res.ExitCode = 0
	return res, nil
}

func buildEnv(ws *workspace.Workspace, interp executor.Interpreter) []string {
	env := []string{
		"HOME=" + ws.Dir,
		"TMPDIR=" + ws.Dir,
	}
	for _, key := range passthroughEnv {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}
	return append(env, interp.Env...)
}
