package process

import "time"

// Config holds the ceilings the engine applies to every run.
type Config struct {
	// Timeout is the wall-clock deadline. The caller can never extend it.
	Timeout time.Duration

	// MaxOutputBytes caps each captured stream independently.
	MaxOutputBytes int

	// MemoryLimitMB becomes RLIMIT_AS on Linux. 0 disables the limit.
	MemoryLimitMB int

	// MaxOpenFiles becomes RLIMIT_NOFILE on Linux. 0 disables the limit.
	MaxOpenFiles uint64
}

// DefaultConfig returns conservative limits suitable for short,
// untrusted scripts.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxOutputBytes: 64 * 1024,
		MemoryLimitMB:  128,
		MaxOpenFiles:   64,
	}
}
