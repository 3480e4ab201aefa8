// SPDX-License-Identifier: MIT

// Package watch observes the inbox directory and triggers a dataset reload
// when new survey workbooks arrive.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Dinutsa/Survey-Analytics/internal/log"
)

// Watcher debounces filesystem events on the inbox into reload callbacks.
// Exports from spreadsheet tools arrive as bursts of partial writes; the
// callback fires only after the burst settles, and a rate limiter keeps a
// misbehaving writer from forcing constant reloads.
type Watcher struct {
	dir      string
	debounce time.Duration
	limiter  *rate.Limiter
	onChange func(context.Context)
	logger   zerolog.Logger
}

// Option adjusts watcher behavior.
type Option func(*Watcher)

// WithDebounce overrides the settle window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLimiter overrides the reload rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(w *Watcher) { w.limiter = l }
}

// New creates an inbox watcher. onChange runs on the watcher goroutine; keep
// it short or hand off.
func New(dir string, onChange func(context.Context), opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		debounce: 500 * time.Millisecond,
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 1),
		onChange: onChange,
		logger:   log.WithComponent("watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", w.dir, err)
	}

	w.logger.Info().
		Str("event", "watch.started").
		Str(log.FieldPath, w.dir).
		Dur("debounce", w.debounce).
		Msg("watching inbox for survey workbooks")

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Debug().
				Str("event", "watch.change").
				Str(log.FieldPath, ev.Name).
				Str("op", ev.Op.String()).
				Msg("inbox change detected")
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			w.logger.Warn().Err(err).Str("event", "watch.error").Msg("fsnotify watcher error")

		case <-timer.C:
			if !w.limiter.Allow() {
				timer.Reset(w.debounce)
				continue
			}
			w.logger.Info().
				Str("event", "watch.reload").
				Str(log.FieldPath, w.dir).
				Msg("inbox settled, triggering reload")
			w.onChange(ctx)
		}
	}
}

// relevant filters for finished workbook files: spreadsheet lock files
// ("~$...") and foreign extensions never trigger a reload.
func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".xlsx")
}
