// SPDX-License-Identifier: MIT

// Command daemon runs the survey analytics service: it ingests XLSX survey
// exports, builds frequency summaries and serves the API, UI and rendered
// reports over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dinutsa/Survey-Analytics/internal/api"
	"github.com/Dinutsa/Survey-Analytics/internal/cache"
	"github.com/Dinutsa/Survey-Analytics/internal/config"
	"github.com/Dinutsa/Survey-Analytics/internal/daemon"
	"github.com/Dinutsa/Survey-Analytics/internal/log"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
	"github.com/Dinutsa/Survey-Analytics/internal/watch"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	log.Configure(log.Config{
		Level:   "info",
		Service: "survey-analytics",
		Version: version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config file: explicit --config, else ${SURVEY_DATA}/config.yaml if present.
	effectivePath := strings.TrimSpace(*configPath)
	if effectivePath == "" {
		dataDir := strings.TrimSpace(config.ParseString("SURVEY_DATA", "./data"))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectivePath = autoPath
		}
	}

	cfg, err := config.NewLoader(effectivePath, version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectivePath).
			Msg("failed to load configuration")
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	if effectivePath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", effectivePath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.dirs_failed").
			Msg("failed to prepare data directories")
	}

	serverCfg := config.ParseServerConfig()
	serverCfg.ListenAddr = cfg.ListenAddr

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", serverCfg.ListenAddr).
		Msg("starting survey-analytics")

	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
	logger.Info().Msgf("→ Inbox: %s (watch: %v)", cfg.InboxDir, cfg.WatchEnabled)
	logger.Info().Msgf("→ Cache: %s (TTL %s)", cfg.CacheBackend, cfg.CacheTTL)
	if cfg.APIToken != "" {
		logger.Info().Msg("→ API token: configured")
	} else {
		logger.Warn().
			Str("security", "weak").
			Msg("→ API token: NOT configured (auth disabled). Set SURVEY_API_TOKEN for security.")
	}
	if cfg.MetricsEnabled {
		logger.Info().Msgf("→ Metrics: %s/metrics", cfg.MetricsAddr)
	}

	c, err := cache.New(ctx, cache.Options{
		Backend: cfg.CacheBackend,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		BadgerDir:       cfg.BadgerPath,
		CleanupInterval: cfg.CacheTTL,
	}, logger)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "cache.init_failed").
			Str("backend", cfg.CacheBackend).
			Msg("failed to initialize cache")
	}

	builder := report.NewBuilder(report.Options{
		FontPath:     cfg.FontPath,
		DataDir:      cfg.DataDir,
		FontDownload: cfg.FontDownload,
	})

	server := api.New(cfg, builder, c)

	// Load whatever is already sitting in the inbox. An empty inbox is fine,
	// uploads and the watcher fill it later.
	if err := server.ReloadInbox(ctx); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "startup.inbox_empty").
			Msg("no usable workbooks in inbox yet")
	}

	deps := daemon.Deps{
		Logger:     log.WithComponent("daemon"),
		APIHandler: server.Router(),
	}
	if cfg.MetricsEnabled {
		deps.MetricsHandler = promhttp.Handler()
		deps.MetricsAddr = cfg.MetricsAddr
	}
	if cfg.WatchEnabled {
		watcher := watch.New(cfg.InboxDir, func(ctx context.Context) {
			if err := server.ReloadAndReprocess(ctx); err != nil {
				logger.Error().
					Err(err).
					Str("event", "watch.reload_failed").
					Msg("inbox reload failed")
			}
		})
		deps.Watcher = watcher.Run
	}

	mgr, err := daemon.NewManager(serverCfg, deps)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.init_failed").
			Msg("failed to create daemon manager")
	}

	mgr.RegisterShutdownHook("cache", func(ctx context.Context) error {
		return c.Close()
	})

	if err := mgr.Start(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
	}
}
