// SPDX-License-Identifier: MIT

// Package daemon manages the service lifecycle: HTTP servers, the inbox
// watcher and graceful shutdown with LIFO cleanup hooks.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Dinutsa/Survey-Analytics/internal/config"
)

// ShutdownHook performs cleanup during graceful shutdown. Hooks run in
// reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager runs the configured servers and coordinates shutdown.
type Manager interface {
	// Start starts all configured servers and blocks until shutdown.
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers and runs the hooks.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a cleanup function for shutdown.
	RegisterShutdownHook(name string, hook ShutdownHook)
}

type manager struct {
	opts config.ServerConfig
	deps Deps

	apiServer     *http.Server
	metricsServer *http.Server

	shutdownHooks []namedHook

	started  bool
	stopping bool
	mu       sync.Mutex
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a daemon manager for the given server options and deps.
func NewManager(opts config.ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	return &manager{opts: opts, deps: deps}, nil
}

// Start starts all configured servers and blocks until the context is
// cancelled or a server fails.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	logger := m.deps.Logger.With().Str("component", "daemon").Logger()
	logger.Info().
		Str("event", "daemon.start").
		Str("listen", m.opts.ListenAddr).
		Dur("shutdown_timeout", m.opts.ShutdownTimeout).
		Msg("starting daemon manager")

	errChan := make(chan error, 3)

	if m.deps.MetricsHandler != nil && m.deps.MetricsAddr != "" {
		m.startMetricsServer(errChan)
	}
	if m.deps.Watcher != nil {
		m.startWatcher(ctx, errChan)
	}
	m.startAPIServer(errChan)

	select {
	case err := <-errChan:
		logger.Error().Err(err).Str("event", "daemon.server_error").Msg("server error, initiating shutdown")
		// Bounded shutdown even when the parent context is already cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := m.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		logger.Info().Str("event", "daemon.signal").Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.ShutdownTimeout)
		defer cancel()
		return m.Shutdown(shutdownCtx)
	}
}

func (m *manager) startAPIServer(errChan chan<- error) {
	logger := m.deps.Logger.With().Str("component", "daemon").Logger()

	m.apiServer = &http.Server{
		Addr:              m.opts.ListenAddr,
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.opts.ReadTimeout,
		ReadHeaderTimeout: m.opts.ReadTimeout / 2,
		WriteTimeout:      m.opts.WriteTimeout,
		IdleTimeout:       m.opts.IdleTimeout,
		MaxHeaderBytes:    m.opts.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", m.opts.ListenAddr).Str("event", "api.listening").Msg("API server listening")
		if err := m.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("event", "api.server_failed").Msg("API server failed")
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()
}

func (m *manager) startMetricsServer(errChan chan<- error) {
	logger := m.deps.Logger.With().Str("component", "daemon").Logger()

	m.metricsServer = &http.Server{
		Addr:              m.deps.MetricsAddr,
		Handler:           m.deps.MetricsHandler,
		ReadHeaderTimeout: m.opts.ReadTimeout / 2,
	}

	go func() {
		logger.Info().Str("addr", m.deps.MetricsAddr).Str("event", "metrics.listening").Msg("metrics server listening")
		if err := m.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("event", "metrics.server_failed").Msg("metrics server failed")
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()
}

func (m *manager) startWatcher(ctx context.Context, errChan chan<- error) {
	logger := m.deps.Logger.With().Str("component", "daemon").Logger()

	go func() {
		logger.Info().Str("event", "watch.worker_started").Msg("inbox watcher started")
		if err := m.deps.Watcher(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Str("event", "watch.worker_failed").Msg("inbox watcher failed")
			errChan <- fmt.Errorf("inbox watcher: %w", err)
		}
	}()
}

// Shutdown stops the servers and runs registered hooks in LIFO order.
func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	m.mu.Unlock()

	logger := m.deps.Logger.With().Str("component", "daemon").Logger()
	logger.Info().Str("event", "daemon.shutdown").Msg("shutting down daemon manager")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.ShutdownTimeout)
	defer cancel()

	var errs []error

	if m.apiServer != nil {
		if err := m.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}
	if m.metricsServer != nil {
		if err := m.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	for i := len(m.shutdownHooks) - 1; i >= 0; i-- {
		hook := m.shutdownHooks[i]
		start := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			logger.Debug().
				Str("hook", hook.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook completed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	logger.Info().Str("event", "daemon.stopped").Msg("daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function. Hooks run in reverse
// registration order.
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}
