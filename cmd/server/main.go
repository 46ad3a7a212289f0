// Package main is the entry point for the code runner service.
//
// main stays minimal: read configuration, build the logger, hand both
// to the server package and block until shutdown. Everything else
// lives in internal/server.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/code-runner/internal/config"
	"github.com/sakif/code-runner/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// Every knob comes from the environment with a sane default; an
	// invalid value aborts startup here rather than misbehaving later.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	// === 3. ASSEMBLE AND RUN ===
	// server.New wires the whole dependency chain and fails fast when a
	// required resource (database, docker daemon) is unavailable.
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and drains in-flight runs
	// before returning.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
