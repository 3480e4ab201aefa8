// SPDX-License-Identifier: MIT

// Package api serves the survey analytics HTTP API and the embedded web UI.
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dinutsa/Survey-Analytics/internal/cache"
	"github.com/Dinutsa/Survey-Analytics/internal/config"
	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/health"
	"github.com/Dinutsa/Survey-Analytics/internal/jobs"
	"github.com/Dinutsa/Survey-Analytics/internal/log"
	"github.com/Dinutsa/Survey-Analytics/internal/metrics"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
)

// Server holds the loaded dataset and the result of the last processing run.
// One dataset is active at a time; uploads and inbox reloads replace it.
type Server struct {
	cfg     config.AppConfig
	builder *report.Builder
	cache   cache.Cache
	health  *health.Manager
	logger  zerolog.Logger

	mu     sync.RWMutex
	ds     *dataset.Dataset
	result *jobs.Result
	status jobs.Status

	// processing serializes runs: concurrent process requests get a 409
	// instead of racing on state.
	processing atomic.Bool

	startTime time.Time
}

// New creates the API server. The cache may be nil to disable report caching.
func New(cfg config.AppConfig, builder *report.Builder, c cache.Cache) *Server {
	s := &Server{
		cfg:       cfg,
		builder:   builder,
		cache:     c,
		logger:    log.WithComponent("api"),
		startTime: time.Now(),
	}

	s.health = health.NewManager(cfg.Version)
	s.health.Register(health.NewDataDirChecker(cfg.DataDir))
	s.health.Register(health.NewDatasetChecker(s.DatasetState))

	return s
}

// DatasetState reports the loaded row count and last run outcome, for
// readiness checks.
func (s *Server) DatasetState() (int, time.Time, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	responses := 0
	if s.ds != nil {
		responses = s.ds.Len()
	}
	return responses, s.status.LastRun, s.status.Error
}

// SetDataset replaces the active dataset. The previous processing result is
// dropped: it described different rows.
func (s *Server) SetDataset(ds *dataset.Dataset) {
	s.mu.Lock()
	s.ds = ds
	s.result = nil
	s.status = jobs.Status{}
	s.mu.Unlock()

	s.logger.Info().
		Str("event", "dataset.replaced").
		Int(log.FieldResponses, ds.Len()).
		Str(log.FieldDataset, ds.Fingerprint()).
		Msg("active dataset replaced")
}

// ReloadInbox loads every workbook from the inbox directory and makes the
// merged dataset active. Called at startup, by the inbox watcher and after
// uploads.
func (s *Server) ReloadInbox(ctx context.Context) error {
	logger := log.WithComponentFromContext(ctx, "api")

	ds, err := dataset.LoadDir(s.cfg.InboxDir, s.limits())
	metrics.RecordDatasetLoad(dsLen(ds), err)
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "dataset.reload_failed").
			Str(log.FieldPath, s.cfg.InboxDir).
			Msg("inbox reload failed")
		return fmt.Errorf("reload inbox: %w", err)
	}

	s.SetDataset(ds)
	return nil
}

// ReloadAndReprocess reloads the inbox and, when a processing run had already
// happened, re-runs it over the full range of the new dataset. Used by the
// inbox watcher so summaries track the drop directory.
func (s *Server) ReloadAndReprocess(ctx context.Context) error {
	s.mu.RLock()
	hadResult := s.result != nil
	s.mu.RUnlock()

	if err := s.ReloadInbox(ctx); err != nil {
		return err
	}
	if !hadResult {
		return nil
	}
	if _, err := s.process(ctx, jobs.ProcessConfig{}); err != nil && !errors.Is(err, errProcessingBusy) {
		return err
	}
	return nil
}

// process runs one pipeline pass and stores the outcome.
func (s *Server) process(ctx context.Context, cfg jobs.ProcessConfig) (*jobs.Result, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return nil, errProcessingBusy
	}
	defer s.processing.Store(false)

	s.mu.RLock()
	ds := s.ds
	s.mu.RUnlock()

	res, err := jobs.Process(ctx, ds, cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status.Error = err.Error()
		return nil, err
	}
	s.result = res
	s.status = res.Status
	return res, nil
}

func (s *Server) limits() dataset.Limits {
	return dataset.Limits{
		MaxBytes:   s.cfg.MaxUploadBytes(),
		MaxRows:    s.cfg.MaxRows,
		MaxColumns: s.cfg.MaxColumns,
	}
}

func dsLen(ds *dataset.Dataset) int {
	if ds == nil {
		return 0
	}
	return ds.Len()
}

var errProcessingBusy = fmt.Errorf("a processing run is already in progress")
