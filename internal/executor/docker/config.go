package docker

import (
	"time"
)

// Config holds the container engine's ceilings and pool settings.
type Config struct {
	// Image is the container image executions run in.
	Image string
	// MemoryLimit is the container memory cap in bytes.
	MemoryLimit int64
	// CPULimit is the number of CPUs the container may use.
	CPULimit float64
	// Timeout is the wall-clock deadline per run.
	Timeout time.Duration
	// MaxOutputBytes caps each captured stream independently.
	MaxOutputBytes int
	// PoolSize is the number of pre-warmed containers to maintain.
	PoolSize int
}

// DefaultConfig provides sensible defaults for a Python sandbox.
func DefaultConfig() Config {
	return Config{
		// Lightweight python image
		Image: "python:3.12-alpine",
		// 128 MB memory limit
		MemoryLimit: 128 * 1024 * 1024,
		// 0.5 CPU shares
		CPULimit:       0.5,
		Timeout:        10 * time.Second,
		MaxOutputBytes: 64 * 1024,
		PoolSize:       3,
	}
}
