// Package bootstrap wires the application services and runs them until an interrupt.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// App runs a command and releases the registered resources when it ends.
type App struct {
	mu    sync.Mutex
	hooks []func(ctx context.Context) error
	done  bool
}

func New() *App {
	return &App{}
}

// AddShutdownHook registers fn to release a resource. Hooks run once, newest first.
func (a *App) AddShutdownHook(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Run executes run until it returns or the process is interrupted, then runs the shutdown hooks.
// An interrupt does not wait for run to return.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Default().Debug("shutting down", "cause", context.Cause(ctx))
	case runErr = <-errCh:
	}
	return errors.Join(runErr, a.Shutdown(context.WithoutCancel(ctx)))
}

// Shutdown runs the hooks that have not run yet.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return nil
	}
	a.done = true

	var errs []error
	for i := len(a.hooks) - 1; i >= 0; i-- {
		if err := a.hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
