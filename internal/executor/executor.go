// Package executor defines the contracts shared by the sandbox engines
// and the coordinator: the request/result shapes, the outcome variants
// returned to the transport, and the interpreter registry.
package executor

import (
	"context"
	"time"

	"github.com/sakif/code-runner/internal/executor/workspace"
)

// Language identifies which interpreter runs the submitted code.
type Language string

const LanguagePython Language = "python"

// Request represents one code submission from an authenticated caller.
// Code is untrusted and unbounded until validated against the size limit.
type Request struct {
	Language Language `json:"language"`
	Code     string   `json:"code"`
}

// Interpreter describes how one language's runtime is launched.
// The registry of interpreters doubles as the language allow-list:
// a request whose language has no entry is rejected during validation.
type Interpreter struct {
	Language Language
	Path     string   // interpreter binary, overridable via INTERPRETER_PATH
	Env      []string // interpreter-specific environment, appended to the allow-list
	FileName string   // fixed name the source is staged under
	Image    string   // container image used by the docker engine
}

// DefaultInterpreters returns the supported-language registry.
// Single-valued today; adding a language is adding an entry here.
func DefaultInterpreters() map[Language]Interpreter {
	return map[Language]Interpreter{
		LanguagePython: {
			Language: LanguagePython,
			Path:     "python3",
			// Unbuffered stdout, so partial output survives a timeout kill.
			Env:      []string{"PYTHONUNBUFFERED=1"},
			FileName: "main.py",
			Image:    "python:3.12-alpine",
		},
	}
}

// Result is the raw product of one sandboxed run. Exactly one exit
// sentinel applies: a normal exit code (>= 0), TimedOut, or Signal.
// Stdout and Stderr are always present, empty rather than absent.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int    // -1 when the process was killed (timeout or signal)
	Signal    string // name of the terminating signal, if any
	TimedOut  bool
	Truncated bool // true if either stream hit its capture cap
	Duration  time.Duration
}

// Status tags the outcome variants the transport can serialize.
type Status string

const (
	StatusCompleted     Status = "completed"
	StatusRejected      Status = "rejected"
	StatusTimedOut      Status = "timed_out"
	StatusOverloaded    Status = "overloaded"
	StatusInternalError Status = "internal_error"
)

// Outcome is the tagged result of one execution request. The
// coordinator constructs exactly one Outcome per request; it is
// immutable afterwards and consumed once by the transport.
type Outcome struct {
	Status Status
	Result *Result // set for Completed and TimedOut
	Reason string  // set for Rejected, Overloaded and InternalError
}

func Completed(res *Result) Outcome {
	return Outcome{Status: StatusCompleted, Result: res}
}

func Rejected(reason string) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

func TimedOut(res *Result) Outcome {
	return Outcome{Status: StatusTimedOut, Result: res}
}

func Overloaded() Outcome {
	return Outcome{Status: StatusOverloaded, Reason: "overloaded"}
}

func InternalError(reason string) Outcome {
	return Outcome{Status: StatusInternalError, Reason: reason}
}

// Engine runs one staged workspace to completion under the deadline
// and output caps fixed at engine construction. A timeout or a
// non-zero exit is data in the Result, not an error; Engine errors
// mean the run could not happen at all (launch or infrastructure
// failure).
type Engine interface {
	Execute(ctx context.Context, ws *workspace.Workspace, interp Interpreter) (*Result, error)
	Name() string
}

// Runner is the coordinator interface the transport calls. Every
// failure mode is folded into the returned Outcome; Runner never
// returns an error.
type Runner interface {
	Execute(ctx context.Context, req Request) Outcome
}

// Stager abstracts the workspace manager for the coordinator.
type Stager interface {
	Stage(code, filename string) (*workspace.Workspace, error)
	Release(ws *workspace.Workspace)
}
