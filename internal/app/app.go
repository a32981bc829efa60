package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vk/gridsweep/internal/hcl"
	"github.com/vk/gridsweep/internal/notify"
	"github.com/vk/gridsweep/internal/runner"
)

// dialFunc connects a remote progress reporter.
type dialFunc func(ctx context.Context, opts notify.SocketIOOptions) (notify.Reporter, error)

func dialSocketIO(ctx context.Context, opts notify.SocketIOOptions) (notify.Reporter, error) {
	return notify.Dial(ctx, opts)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	runID    string
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   *hcl.Loader
	executor *runner.Executor
	dial     dialFunc
	progress *progress

	httpServer *http.Server
}

// NewApp is the constructor for the main application. Command output goes to
// outW and logs go to logW, so `expand` output stays machine readable.
// Simulations inherit outW as stdout and logW as stderr.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW).With("run_id", runID)
	logger.Debug("Logger configured successfully.", "command", cfg.Command)

	return &App{
		runID:    runID,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   hcl.NewLoader(),
		executor: &runner.Executor{Stdout: outW, Stderr: logW},
		dial:     dialSocketIO,
		progress: newProgress(runID),
	}
}

// RunID identifies this invocation in logs and progress events.
func (a *App) RunID() string {
	return a.runID
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.config
}
