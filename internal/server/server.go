// Package server wires the dependency chain and owns the HTTP
// lifecycle: router, middleware, routes, startup, and graceful
// shutdown.
//
// New is the composition root. main.go stays minimal; every long-lived
// resource (sqlite handle, docker engine) is created here and closed
// when Start returns.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/code-runner/internal/auth"
	"github.com/sakif/code-runner/internal/config"
	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/executor/docker"
	"github.com/sakif/code-runner/internal/executor/process"
	"github.com/sakif/code-runner/internal/executor/workspace"
	"github.com/sakif/code-runner/internal/handler"
	"github.com/sakif/code-runner/internal/metrics"
	"github.com/sakif/code-runner/internal/middleware"
	"github.com/sakif/code-runner/internal/repository"
	sqliteRepo "github.com/sakif/code-runner/internal/repository/sqlite"
	"github.com/sakif/code-runner/internal/service"
)

// Server holds the router and the long-lived dependencies it owns.
// db is nil when run recording is disabled; docker is nil when the
// process engine is selected.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	docker *docker.Engine
}

// New assembles the dependency chain: database, engine, workspace
// manager, coordinator, handlers, routes. Any failure here is fatal
// for startup; partially created resources are closed before return.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	// A typed nil inside the interface would defeat the coordinator's
	// nil check, so the repository variable is only assigned when the
	// database really exists.
	var runRepo repository.RunRepository
	if cfg.DBPath != "" {
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		s.db = db
		runRepo = db
	} else {
		logger.Info("run recording disabled, DB_PATH is empty")
	}

	engine, err := s.buildEngine()
	if err != nil {
		s.closeResources()
		return nil, err
	}

	if cfg.APIToken == "" {
		logger.Warn("authentication disabled, API_TOKEN is empty")
	}

	stager := workspace.NewManager(cfg.WorkspaceRoot, logger)

	execService := service.NewExecutionService(engine, stager, runRepo, service.ExecutionConfig{
		MaxCodeBytes:    cfg.MaxCodeBytes,
		MaxConcurrent:   cfg.MaxConcurrentExecutions,
		InterpreterPath: cfg.InterpreterPath,
	}, logger)

	var runService *service.RunService
	if runRepo != nil {
		runService = service.NewRunService(runRepo, logger)
	}

	s.setupRoutes(execService, runService)

	logger.Info("server assembled",
		slog.String("engine", engine.Name()),
		slog.Bool("auth", cfg.APIToken != ""),
		slog.Bool("recording", runRepo != nil),
	)

	return s, nil
}

// buildEngine selects the sandbox engine. The process engine is the
// default and needs nothing beyond the host; the docker engine talks
// to the daemon at startup and fails fast when it is unreachable.
func (s *Server) buildEngine() (executor.Engine, error) {
	switch s.config.Engine {
	case config.EngineDocker:
		dcfg := docker.DefaultConfig()
		dcfg.Image = s.config.DockerImage
		dcfg.PoolSize = s.config.DockerPoolSize
		dcfg.Timeout = s.config.ExecutionTimeout
		dcfg.MaxOutputBytes = s.config.MaxOutputBytes
		if s.config.MemoryLimitMB > 0 {
			dcfg.MemoryLimit = int64(s.config.MemoryLimitMB) * 1024 * 1024
		}

		eng, err := docker.New(dcfg, s.logger)
		if err != nil {
			return nil, fmt.Errorf("initializing docker engine: %w", err)
		}
		s.docker = eng
		return eng, nil

	default:
		pcfg := process.DefaultConfig()
		pcfg.Timeout = s.config.ExecutionTimeout
		pcfg.MaxOutputBytes = s.config.MaxOutputBytes
		pcfg.MemoryLimitMB = s.config.MemoryLimitMB
		return process.New(pcfg, s.logger), nil
	}
}

// setupRoutes configures middleware and routes.
//
// Middleware order: RequestID first so every later stage can tag its
// logs, then RealIP, Recoverer, request logging, and metrics. The
// probes stay outside the auth gate; everything under /api is behind
// the bearer token.
func (s *Server) setupRoutes(runner executor.Runner, runs *service.RunService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)

	s.router.Get("/health", handler.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	executeHandler := handler.NewExecuteHandler(runner, s.config.MaxCodeBytes, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireToken(s.config.APIToken))

		r.Post("/execute", executeHandler.HandleExecute)

		// History routes only exist when recording does.
		if runs != nil {
			runsHandler := handler.NewRunsHandler(runs, s.logger)
			r.Get("/runs", runsHandler.HandleList)
			r.Get("/runs/{id}", runsHandler.HandleGetByID)
		}
	})
}

// Handler exposes the assembled router, mainly for tests that drive
// the server through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without serving. Start calls
// it on the way out; tests that never call Start use it directly.
func (s *Server) Close() {
	s.closeResources()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests,
// release the engine and the database.
func (s *Server) Start() error {
	defer s.closeResources()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// The response for a run cannot be written before the run
		// finishes, so the write timeout must outlive the execution
		// deadline with room to spare.
		WriteTimeout: s.config.ExecutionTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("engine", s.config.Engine),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// In-flight executions get the full deadline plus margin to
		// finish and write their responses.
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ExecutionTimeout+20*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// closeResources releases everything New created, tolerating partial
// construction. HTTP traffic must already be drained.
func (s *Server) closeResources() {
	if s.docker != nil {
		if err := s.docker.Close(); err != nil {
			s.logger.Error("failed to close docker engine", slog.String("error", err.Error()))
		}
		s.docker = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
		s.db = nil
	}
}
