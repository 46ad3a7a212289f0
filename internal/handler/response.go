package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/code-runner/internal/apperror"
)

// ErrorResponse is the single error shape returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response. Headers and status must be set
// before the first body write; an encode failure past that point can
// only be logged.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status. Validation and
// not-found errors surface their message; everything else collapses to
// a generic 500 so internal detail never reaches the caller.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: appErr.Message})
			return
		case errors.Is(err, apperror.ErrNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: appErr.Message})
			return
		}
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
