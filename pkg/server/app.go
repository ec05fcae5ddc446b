package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"

	"TrendPull/internal/domain/models"
	xhttp "TrendPull/pkg/http"
	applogger "TrendPull/pkg/logger"
)

// Run modes.
const (
	ModeOnce  = "once"
	ModeServe = "serve"
)

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitEmptyResult = 2
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*models.Artifact, error)
}

// Broadcaster receives every artifact produced in serve mode.
type Broadcaster interface {
	Broadcast(a *models.Artifact)
	Close()
}

// Options holds what App needs besides the runner.
type Options struct {
	Mode       string
	Schedule   string
	OutputPath string
}

// App encapsulates the application lifecycle.
type App struct {
	opts    Options
	log     *applogger.Logger
	runner  Runner
	http    *xhttp.Server
	stream  Broadcaster
	closers []io.Closer
}

// New creates a new App. httpServer and stream may be nil in once mode.
func New(opts Options, log *applogger.Logger, runner Runner, httpServer *xhttp.Server, stream Broadcaster, closers ...io.Closer) *App {
	if opts.Mode == "" {
		opts.Mode = ModeOnce
	}
	return &App{
		opts:    opts,
		log:     log,
		runner:  runner,
		http:    httpServer,
		stream:  stream,
		closers: closers,
	}
}

// Run executes the configured mode until it completes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	switch a.opts.Mode {
	case ModeOnce:
		return a.runOnce(ctx)
	case ModeServe:
		return a.serve(ctx)
	default:
		return fmt.Errorf("unknown mode %q", a.opts.Mode)
	}
}

func (a *App) runOnce(ctx context.Context) error {
	artifact, err := a.runner.Run(ctx)
	if err != nil {
		return err
	}
	a.log.Info("artifact written",
		applogger.String("path", a.opts.OutputPath),
		applogger.Int("points", len(artifact.Dates)),
		applogger.String("last_updated", artifact.LastUpdated),
	)
	return nil
}

func (a *App) serve(ctx context.Context) error {
	if a.http != nil {
		if err := a.http.Start(); err != nil {
			return err
		}
	}

	a.refresh(ctx)

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{a.log}),
		cron.SkipIfStillRunning(cronLogger{a.log}),
	))
	if _, err := c.AddFunc(a.opts.Schedule, func() { a.refresh(ctx) }); err != nil {
		a.stopHTTP()
		return fmt.Errorf("schedule %q: %w", a.opts.Schedule, err)
	}
	c.Start()
	a.log.Info("refresh scheduled", applogger.String("schedule", a.opts.Schedule))

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	<-c.Stop().Done()
	a.stopHTTP()
	if a.stream != nil {
		a.stream.Close()
	}
	a.log.Info("shutdown complete")
	return nil
}

// refresh runs the pipeline once. In serve mode a failed run keeps the
// previous artifact in place.
func (a *App) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	artifact, err := a.runner.Run(ctx)
	if errors.Is(err, models.ErrEmptyResult) {
		a.log.Warn("refresh produced no dates", applogger.Error(err))
		return
	}
	if err != nil {
		a.log.Error("refresh failed", applogger.Error(err), applogger.Duration("took", time.Since(start)))
		return
	}
	a.log.Info("refresh complete",
		applogger.Int("points", len(artifact.Dates)),
		applogger.Duration("took", time.Since(start)),
	)
	if a.stream != nil {
		a.stream.Broadcast(artifact)
	}
}

func (a *App) stopHTTP() {
	if a.http == nil {
		return
	}
	if err := a.http.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
}

func (a *App) close() {
	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}
}

// ExitCode maps a Run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, models.ErrEmptyResult):
		return ExitEmptyResult
	default:
		return ExitFailure
	}
}
