package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/code-runner/internal/service"
)

// RunsHandler serves the run history endpoints.
type RunsHandler struct {
	runs   *service.RunService
	logger *slog.Logger
}

// NewRunsHandler creates a new RunsHandler.
func NewRunsHandler(runs *service.RunService, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		runs:   runs,
		logger: logger,
	}
}

// HandleList returns recorded runs, newest first.
//
// HTTP: GET /api/runs?limit=20&offset=0
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.List(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGetByID returns one recorded run.
//
// HTTP: GET /api/runs/{id}
func (h *RunsHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// queryInt reads an integer query parameter. Absent or malformed
// values become zero, which the repository clamps to its defaults.
func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
