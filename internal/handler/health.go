package handler

import "net/http"

// HandleHealth is the liveness probe. It reports process health only
// and takes no dependencies, so it answers even when the database or
// the docker daemon is down.
//
// HTTP: GET /health
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
