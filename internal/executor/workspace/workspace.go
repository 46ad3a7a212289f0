// Package workspace allocates the private filesystem area one
// execution stages its source into, and guarantees its removal.
package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/code-runner/internal/apperror"
)

// Workspace is the ephemeral, exclusively-owned directory holding one
// execution's staged source file. Never shared across requests.
type Workspace struct {
	ID   string // unique per execution, sortable by creation time
	Dir  string // private directory, mode 0700
	Path string // staged source file inside Dir
}

// Manager creates and removes workspaces under a single root.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager returns a Manager rooted at root. An empty root falls
// back to the system temp directory.
func NewManager(root string, logger *slog.Logger) *Manager {
	return &Manager{root: root, logger: logger}
}

// Stage creates a fresh workspace and writes code into it under
// filename. Leading indentation shared by every line is stripped
// first, so indentation-sensitive sources submitted from indented
// string literals still parse. The directory name carries an xid plus
// MkdirTemp's exclusive-create randomness, so concurrent stagings can
// never collide or reuse a location.
func (m *Manager) Stage(code, filename string) (*Workspace, error) {
	id := xid.New().String()

	dir, err := os.MkdirTemp(m.root, "run-"+id+"-")
	if err != nil {
		return nil, apperror.Staging(err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(Dedent(code)), 0o600); err != nil {
		// Don't leak the directory when the write fails.
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			m.logger.Error("removing workspace after failed stage",
				slog.String("dir", dir),
				slog.String("error", rmErr.Error()))
		}
		return nil, apperror.Staging(err)
	}

	return &Workspace{ID: id, Dir: dir, Path: path}, nil
}

// Release removes the workspace and everything inside it. Idempotent:
// releasing twice, or releasing nil, is a no-op. Errors are logged
// and swallowed; by this point the caller already has an outcome and
// a leftover directory must not turn it into a failure.
func (m *Manager) Release(ws *Workspace) {
	if ws == nil {
		return
	}
	if err := os.RemoveAll(ws.Dir); err != nil {
		m.logger.Error("releasing workspace",
			slog.String("dir", ws.Dir),
			slog.String("error", err.Error()))
	}
}

// Dedent strips the longest whitespace prefix common to all non-blank
// lines. Blank lines do not vote and are left as-is when shorter than
// the margin.
func Dedent(code string) string {
	lines := strings.Split(code, "\n")

	margin := ""
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		if !found {
			margin = indent
			found = true
			continue
		}
		margin = commonPrefix(margin, indent)
		if margin == "" {
			return code
		}
	}
	if margin == "" {
		return code
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
