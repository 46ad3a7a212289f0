// Package handler is the HTTP layer: it decodes requests, calls the
// service layer, and writes JSON responses. No business rules live
// here; every decision about a run belongs to the coordinator.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/code-runner/internal/apperror"
	"github.com/sakif/code-runner/internal/executor"
)

// jsonEscapeFactor bounds how much JSON string escaping can inflate
// the code field: one raw byte encodes to at most six ("\u00XX").
const jsonEscapeFactor = 6

// envelopeHeadroom covers the JSON wrapper around the code field.
const envelopeHeadroom = 4 * 1024

// ExecuteHandler serves code execution requests.
type ExecuteHandler struct {
	runner  executor.Runner
	maxBody int64
	logger  *slog.Logger
}

// NewExecuteHandler creates an ExecuteHandler. The transport body cap
// is derived from maxCodeBytes so an oversized POST dies before JSON
// decoding; the decoded length check in the coordinator stays
// authoritative.
func NewExecuteHandler(runner executor.Runner, maxCodeBytes int, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		runner:  runner,
		maxBody: int64(maxCodeBytes)*jsonEscapeFactor + envelopeHeadroom,
		logger:  logger,
	}
}

// HandleExecute runs one code submission and writes its outcome.
//
// HTTP: POST /api/execute
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req executor.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperror.ValidationFailed("body",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		h.logger.Warn("invalid execution request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	out := h.runner.Execute(r.Context(), req)
	writeOutcome(w, out)
}

// executeResponse is the wire form of a run that produced a result.
type executeResponse struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exitCode"`
	Signal     string `json:"signal,omitempty"`
	TimedOut   bool   `json:"timedOut"`
	Truncated  bool   `json:"truncated"`
	DurationMS int64  `json:"durationMs"`
}

// writeOutcome maps each outcome variant onto its HTTP shape. Both
// Completed and TimedOut are 200s: the sandbox did its job and the
// body says how the run ended.
func writeOutcome(w http.ResponseWriter, out executor.Outcome) {
	switch out.Status {
	case executor.StatusCompleted, executor.StatusTimedOut:
		res := out.Result
		writeJSON(w, http.StatusOK, executeResponse{
			Stdout:     res.Stdout,
			Stderr:     res.Stderr,
			ExitCode:   res.ExitCode,
			Signal:     res.Signal,
			TimedOut:   res.TimedOut,
			Truncated:  res.Truncated,
			DurationMS: res.Duration.Milliseconds(),
		})
	case executor.StatusRejected:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: out.Reason})
	case executor.StatusOverloaded:
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "overloaded"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
