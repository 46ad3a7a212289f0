package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/handler"
)

// mockRunner returns a canned outcome and records what it was asked to run.
type mockRunner struct {
	captured executor.Request
	outcome  executor.Outcome
	calls    int
}

func (m *mockRunner) Execute(_ context.Context, req executor.Request) executor.Outcome {
	m.calls++
	m.captured = req
	return m.outcome
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func postExecute(h *handler.ExecuteHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/execute", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.HandleExecute(rr, req)
	return rr
}

func TestExecuteHandler_HandleExecute(t *testing.T) {
	t.Run("completed run", func(t *testing.T) {
		runner := &mockRunner{outcome: executor.Completed(&executor.Result{
			Stdout:   "Hello from the runner!\n",
			Stderr:   "",
			ExitCode: 0,
			Duration: 120 * time.Millisecond,
		})}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"language":"python","code":"print('hi')"}`)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "Hello from the runner!\n", body["stdout"])
		assert.Equal(t, "", body["stderr"])
		assert.Equal(t, float64(0), body["exitCode"])
		assert.Equal(t, false, body["timedOut"])
		assert.Equal(t, false, body["truncated"])
		assert.Equal(t, float64(120), body["durationMs"])
		assert.NotContains(t, body, "signal")

		assert.Equal(t, executor.LanguagePython, runner.captured.Language)
		assert.Equal(t, "print('hi')", runner.captured.Code)
	})

	t.Run("non-zero exit is still 200", func(t *testing.T) {
		runner := &mockRunner{outcome: executor.Completed(&executor.Result{
			Stderr:   "Traceback (most recent call last):\n",
			ExitCode: 1,
		})}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"language":"python","code":"boom"}`)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["exitCode"])
	})

	t.Run("timed out run", func(t *testing.T) {
		runner := &mockRunner{outcome: executor.TimedOut(&executor.Result{
			Stdout:   "started\n",
			ExitCode: -1,
			TimedOut: true,
			Duration: 10 * time.Second,
		})}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"language":"python","code":"while True: pass"}`)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, true, body["timedOut"])
		assert.Equal(t, float64(-1), body["exitCode"])
		assert.Equal(t, "started\n", body["stdout"])
	})

	t.Run("signal is reported when present", func(t *testing.T) {
		runner := &mockRunner{outcome: executor.Completed(&executor.Result{
			ExitCode: -1,
			Signal:   "SIGKILL",
		})}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"language":"python","code":"x"}`)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "SIGKILL", body["signal"])
	})

	t.Run("rejected request", func(t *testing.T) {
		runner := &mockRunner{outcome: executor.Rejected("unsupported language \"ruby\"")}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"language":"ruby","code":"puts 1"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, `unsupported language "ruby"`, body["error"])
	})

	t.Run("overloaded", func(t *testing.T) {
		runner := &mockRunner{outcome: executor.Overloaded()}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"language":"python","code":"print(1)"}`)

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.JSONEq(t, `{"error":"overloaded"}`, rr.Body.String())
	})

	t.Run("internal error", func(t *testing.T) {
		runner := &mockRunner{outcome: executor.InternalError("internal error")}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"language":"python","code":"print(1)"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"internal error"}`, rr.Body.String())
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		runner := &mockRunner{}
		h := handler.NewExecuteHandler(runner, 64*1024, testLogger())

		rr := postExecute(h, `{"code":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, runner.calls, "runner should not be called for a bad body")
	})

	t.Run("oversized body dies at the transport", func(t *testing.T) {
		runner := &mockRunner{}
		// cap derives from maxCodeBytes=16, so a multi-KiB body is over it
		h := handler.NewExecuteHandler(runner, 16, testLogger())

		huge := `{"language":"python","code":"` + strings.Repeat("a", 8*1024) + `"}`
		rr := postExecute(h, huge)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, runner.calls, "runner should not be called for an oversized body")

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "exceeds")
	})
}
