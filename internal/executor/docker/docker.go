package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/executor/workspace"
)

// Engine implements executor.Engine inside pooled containers. It is
// the stronger-isolation option: no network, cgroup memory/cpu caps,
// read-only rootfs. Requires a reachable daemon.
type Engine struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

// New creates a container engine and initializes the connection.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	// Make sure the image is pulled
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring docker image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	// Read everything to block until the pull is complete
	io.Copy(io.Discard, reader)
	logger.Info("docker image is ready")

	eng := &Engine{
		cli:    cli,
		config: cfg,
		logger: logger,
	}

	eng.pool = NewPool(cli, cfg, logger)
	eng.pool.Start()

	return eng, nil
}

// Close shuts down the container pool and docker client.
func (e *Engine) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

func (e *Engine) Name() string { return "docker" }

// Execute uploads the staged source into a pooled container, runs the
// interpreter over it and captures the demultiplexed output. The
// container is force-removed afterwards, which also takes down
// anything the submitted code left running inside it.
func (e *Engine) Execute(ctx context.Context, ws *workspace.Workspace, interp executor.Interpreter) (*executor.Result, error) {
	start := time.Now()

	// The caller's context may never cancel (runs are detached from the
	// request), so setup carries its own deadline: an empty pool that
	// cannot refill, or a daemon that stopped answering, fails the run
	// instead of blocking this goroutine forever.
	setupCtx, setupCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer setupCancel()

	containerID, err := e.pool.GetContainer(setupCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	// Always clean up the container we acquired
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			e.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	archive, err := sourceArchive(ws.Path, interp.FileName)
	if err != nil {
		return nil, err
	}
	if err := e.cli.CopyToContainer(setupCtx, containerID, execDir, archive, container.CopyToContainerOptions{}); err != nil {
		return nil, fmt.Errorf("failed to upload source: %w", err)
	}

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	// The container resolves the interpreter by name on its own PATH;
	// a host-specific interpreter path has no meaning inside the image.
	execConfig := container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   execDir,
		Env:          interp.Env,
		Cmd:          []string{filepath.Base(interp.Path), path.Join(execDir, interp.FileName)},
	}

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	stdout := executor.NewLimitedBuffer(e.config.MaxOutputBytes)
	stderr := executor.NewLimitedBuffer(e.config.MaxOutputBytes)

	done := make(chan struct{})
	go func() {
		// Use stdcopy to demultiplex stdout from stderr
		_, _ = stdcopy.StdCopy(stdout, stderr, attachResp.Reader)
		close(done)
	}()

	res := &executor.Result{}

	select {
	case <-done:
		inspectCtx, inspectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer inspectCancel()

		inspectResp, err := e.cli.ContainerExecInspect(inspectCtx, execResp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect exec: %w", err)
		}
		res.ExitCode = inspectResp.ExitCode
	case <-executeCtx.Done():
		// Deadline hit. Stop the copier before reading the buffers; the
		// deferred remove tears the whole container down.
		attachResp.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		res.TimedOut = true
		res.ExitCode = -1
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.Truncated = stdout.Truncated() || stderr.Truncated()
	res.Duration = time.Since(start)

	return res, nil
}

// sourceArchive wraps the staged file in an in-memory tar stream for
// CopyToContainer.
func sourceArchive(srcPath, filename string) (io.Reader, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("reading staged source: %w", err)
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name:    filename,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("writing tar header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return nil, fmt.Errorf("writing tar body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar: %w", err)
	}
	return &buf, nil
}
