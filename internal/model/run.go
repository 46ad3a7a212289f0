// Package model defines the data structures shared across the application.
package model

import "time"

// Run is the audit record of one sandboxed execution.
//
// It deliberately carries metadata only. Submitted source and captured
// output are never persisted; the response to the caller is the only
// place they exist.
type Run struct {
	ID          string    `json:"id"`
	Language    string    `json:"language"`
	Status      string    `json:"status"` // completed or timed_out
	ExitCode    int       `json:"exitCode"`
	Signal      string    `json:"signal,omitempty"`
	TimedOut    bool      `json:"timedOut"`
	Truncated   bool      `json:"truncated"`
	StdoutBytes int       `json:"stdoutBytes"`
	StderrBytes int       `json:"stderrBytes"`
	DurationMS  int64     `json:"durationMs"`
	Engine      string    `json:"engine"` // which sandbox ran it: process or docker
	CreatedAt   time.Time `json:"createdAt"`
}
