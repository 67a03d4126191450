package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	applogger "FinForecast/pkg/logger"
)

// Component is a long-running part of the application started before the
// HTTP listener and stopped after it.
type Component interface {
	Start() error
	Stop(ctx context.Context) error
}

// Closer releases an infrastructure client once every component has stopped.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	logger          *applogger.Logger
	http            Component
	components      []namedComponent
	closers         []Closer
	shutdownTimeout time.Duration
}

type namedComponent struct {
	name string
	c    Component
}

// Option configures App.
type Option func(*App)

// WithComponent adds a background component such as the job queue or the
// retrain scheduler. Components start in registration order and stop in
// reverse.
func WithComponent(name string, c Component) Option {
	return func(a *App) {
		if c != nil {
			a.components = append(a.components, namedComponent{name: name, c: c})
		}
	}
}

// WithCloser registers a client to release on shutdown.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, Closer{Name: name, Close: fn})
		}
	}
}

// WithShutdownTimeout bounds the whole shutdown sequence.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// New creates a new App around the HTTP server.
func New(l *applogger.Logger, httpServer Component, opts ...Option) *App {
	a := &App{
		logger:          l,
		http:            httpServer,
		shutdownTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every component and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := 0
	for _, nc := range a.components {
		if err := nc.c.Start(); err != nil {
			a.logger.Error("component start failed", applogger.String("component", nc.name), applogger.Error(err))
			a.stopComponents(a.components[:started])
			a.close()
			return fmt.Errorf("start %s: %w", nc.name, err)
		}
		a.logger.Info("component started", applogger.String("component", nc.name))
		started++
	}

	if err := a.http.Start(); err != nil {
		a.stopComponents(a.components)
		a.close()
		return fmt.Errorf("start http: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the listener first so no new work arrives, then the
// background components, then the clients they use.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.http.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}
	if err := a.stopComponentsCtx(ctx, a.components); err != nil && firstErr == nil {
		firstErr = err
	}
	a.close()

	a.logger.Info("shutdown complete")
	return firstErr
}

func (a *App) stopComponents(cs []namedComponent) {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	_ = a.stopComponentsCtx(ctx, cs)
}

func (a *App) stopComponentsCtx(ctx context.Context, cs []namedComponent) error {
	var firstErr error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].c.Stop(ctx); err != nil {
			a.logger.Warn("component stop error", applogger.String("component", cs[i].name), applogger.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("stop %s: %w", cs[i].name, err)
			}
		}
	}
	return firstErr
}

func (a *App) close() {
	// The collector publishes through the event producer, so flush it first.
	a.logger.RemoveCollector()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("client", c.Name), applogger.Error(err))
		}
	}
}
