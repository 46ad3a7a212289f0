// Package config loads runtime configuration from environment
// variables. Every knob has a default that works for local
// development; an invalid value fails startup rather than silently
// running with limits other than the operator asked for.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Engine names accepted by the ENGINE variable.
const (
	EngineProcess = "process"
	EngineDocker  = "docker"
)

// Config holds all configuration for the runner.
type Config struct {
	Port     int    // HTTP listen port
	APIToken string // shared bearer secret; empty disables auth
	LogLevel string // debug, info, warn, error
	Engine   string // sandbox engine: process or docker

	// Execution limits
	MaxCodeBytes            int           // largest accepted submission
	ExecutionTimeout        time.Duration // hard wall-clock deadline per run
	MaxOutputBytes          int           // cap per captured stream
	MaxConcurrentExecutions int           // runs in flight before 429
	MemoryLimitMB           int           // address-space ceiling, 0 disables

	// Execution environment
	InterpreterPath string // overrides the python binary, empty keeps the default
	WorkspaceRoot   string // parent dir for run workspaces, empty uses the OS temp dir

	// Run history
	DBPath string // SQLite file for run metadata; empty disables recording

	// Docker engine
	DockerImage    string // image pulled for sandbox containers
	DockerPoolSize int    // containers kept warm
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		APIToken:        os.Getenv("API_TOKEN"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		Engine:          envOrDefault("ENGINE", EngineProcess),
		InterpreterPath: os.Getenv("INTERPRETER_PATH"),
		WorkspaceRoot:   os.Getenv("WORKSPACE_ROOT"),
		DBPath:          "data/runs.db",
		DockerImage:     envOrDefault("DOCKER_IMAGE", "python:3.12-alpine"),
	}

	// DB_PATH set to an empty string is meaningful: it turns run
	// recording off, so LookupEnv rather than Getenv.
	if v, ok := os.LookupEnv("DB_PATH"); ok {
		cfg.DBPath = v
	}

	var err error
	if cfg.Port, err = intFromEnv("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.MaxCodeBytes, err = intFromEnv("MAX_CODE_BYTES", 64*1024); err != nil {
		return nil, err
	}
	if cfg.MaxOutputBytes, err = intFromEnv("MAX_OUTPUT_BYTES", 64*1024); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentExecutions, err = intFromEnv("MAX_CONCURRENT_EXECUTIONS", 4); err != nil {
		return nil, err
	}
	if cfg.MemoryLimitMB, err = intFromEnv("MEMORY_LIMIT_MB", 128); err != nil {
		return nil, err
	}
	if cfg.DockerPoolSize, err = intFromEnv("DOCKER_POOL_SIZE", 3); err != nil {
		return nil, err
	}
	if cfg.ExecutionTimeout, err = durationFromEnv("EXECUTION_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Engine != EngineProcess && c.Engine != EngineDocker {
		return fmt.Errorf("ENGINE must be %q or %q, got %q", EngineProcess, EngineDocker, c.Engine)
	}
	if c.MaxCodeBytes <= 0 {
		return fmt.Errorf("MAX_CODE_BYTES must be positive, got %d", c.MaxCodeBytes)
	}
	if c.ExecutionTimeout <= 0 {
		return fmt.Errorf("EXECUTION_TIMEOUT must be positive, got %s", c.ExecutionTimeout)
	}
	if c.MaxOutputBytes <= 0 {
		return fmt.Errorf("MAX_OUTPUT_BYTES must be positive, got %d", c.MaxOutputBytes)
	}
	if c.MaxConcurrentExecutions <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_EXECUTIONS must be positive, got %d", c.MaxConcurrentExecutions)
	}
	if c.MemoryLimitMB < 0 {
		return fmt.Errorf("MEMORY_LIMIT_MB must not be negative, got %d", c.MemoryLimitMB)
	}
	if c.DockerPoolSize <= 0 {
		return fmt.Errorf("DOCKER_POOL_SIZE must be positive, got %d", c.DockerPoolSize)
	}
	return nil
}

// Level maps the configured LogLevel onto a slog.Level. Unknown values
// fall back to info rather than failing startup.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
