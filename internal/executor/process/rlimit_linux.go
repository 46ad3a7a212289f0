//go:build linux

package process

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

// applyLimits sets kernel ceilings on the freshly started child.
// Best-effort: a child that forks before the limits land keeps only
// its inherited ones, and any failure is logged rather than fatal.
// The wall-clock deadline remains the backstop either way.
func applyLimits(pid int, cfg Config, logger *slog.Logger) {
	set := func(resource int, limit uint64, name string) {
		rl := unix.Rlimit{Cur: limit, Max: limit}
		if err := unix.Prlimit(pid, resource, &rl, nil); err != nil {
			logger.Warn("applying rlimit",
				slog.String("limit", name),
				slog.Int("pid", pid),
				slog.String("error", err.Error()))
		}
	}

	if cfg.MemoryLimitMB > 0 {
		set(unix.RLIMIT_AS, uint64(cfg.MemoryLimitMB)*1024*1024, "as")
	}
	if cfg.Timeout > 0 {
		// One spare second over the wall clock, for runs that are pure CPU.
		set(unix.RLIMIT_CPU, uint64(cfg.Timeout.Seconds())+1, "cpu")
	}
	if cfg.MaxOpenFiles > 0 {
		set(unix.RLIMIT_NOFILE, cfg.MaxOpenFiles, "nofile")
	}
}
