//go:build !linux

package process

import "log/slog"

// applyLimits is a no-op off Linux. The wall-clock deadline and the
// capped output buffers still bound every run.
func applyLimits(pid int, cfg Config, logger *slog.Logger) {}
