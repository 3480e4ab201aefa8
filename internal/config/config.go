// SPDX-License-Identifier: MIT

// Package config loads service configuration with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache backend names accepted by SURVEY_CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// AppConfig holds the full application configuration.
type AppConfig struct {
	// Core paths
	DataDir  string `yaml:"dataDir"`
	InboxDir string `yaml:"inboxDir"`

	// HTTP
	ListenAddr     string   `yaml:"listenAddr"`
	APIToken       string   `yaml:"apiToken"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// Rate limiting
	RateLimitEnabled bool `yaml:"rateLimitEnabled"`
	RateLimitRPM     int  `yaml:"rateLimitRPM"`

	// Ingest guards
	MaxUploadMB int `yaml:"maxUploadMB"`
	MaxRows     int `yaml:"maxRows"`
	MaxColumns  int `yaml:"maxColumns"`

	// Cache
	CacheBackend  string        `yaml:"cacheBackend"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	BadgerPath    string        `yaml:"badgerPath"`

	// Inbox watcher
	WatchEnabled bool `yaml:"watch"`

	// Report rendering
	FontPath     string `yaml:"fontPath"`
	FontDownload bool   `yaml:"fontDownload"`

	// Observability
	MetricsEnabled bool   `yaml:"metricsEnabled"`
	MetricsAddr    string `yaml:"metricsAddr"`
	LogLevel       string `yaml:"logLevel"`
	LogService     string `yaml:"logService"`

	// Build metadata (not configurable)
	Version string `yaml:"-"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:          "./data",
		ListenAddr:       ":8080",
		RateLimitEnabled: true,
		RateLimitRPM:     600,
		MaxUploadMB:      20,
		MaxRows:          100000,
		MaxColumns:       256,
		CacheBackend:     CacheMemory,
		CacheTTL:         15 * time.Minute,
		FontDownload:     true,
		MetricsEnabled:   true,
		MetricsAddr:      ":9090",
		LogLevel:         "info",
		LogService:       "survey-analytics",
	}
}

// FromEnv overlays SURVEY_* environment variables onto cfg and returns the result.
func FromEnv(cfg AppConfig) AppConfig {
	cfg.DataDir = ParseString("SURVEY_DATA", cfg.DataDir)
	cfg.InboxDir = ParseString("SURVEY_INBOX", cfg.InboxDir)
	cfg.ListenAddr = ParseString("SURVEY_LISTEN", cfg.ListenAddr)
	cfg.APIToken = ParseString("SURVEY_API_TOKEN", cfg.APIToken)
	cfg.AllowedOrigins = ParseCSV("SURVEY_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.RateLimitEnabled = ParseBool("SURVEY_RATE_LIMIT", cfg.RateLimitEnabled)
	cfg.RateLimitRPM = ParseInt("SURVEY_RATE_LIMIT_RPM", cfg.RateLimitRPM)
	cfg.MaxUploadMB = ParseInt("SURVEY_MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.MaxRows = ParseInt("SURVEY_MAX_ROWS", cfg.MaxRows)
	cfg.MaxColumns = ParseInt("SURVEY_MAX_COLUMNS", cfg.MaxColumns)
	cfg.CacheBackend = strings.ToLower(ParseString("SURVEY_CACHE_BACKEND", cfg.CacheBackend))
	cfg.CacheTTL = ParseDuration("SURVEY_CACHE_TTL", cfg.CacheTTL)
	cfg.RedisAddr = ParseString("SURVEY_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = ParseString("SURVEY_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = ParseInt("SURVEY_REDIS_DB", cfg.RedisDB)
	cfg.BadgerPath = ParseString("SURVEY_BADGER_PATH", cfg.BadgerPath)
	cfg.WatchEnabled = ParseBool("SURVEY_WATCH", cfg.WatchEnabled)
	cfg.FontPath = ParseString("SURVEY_FONT_PATH", cfg.FontPath)
	cfg.FontDownload = ParseBool("SURVEY_FONT_DOWNLOAD", cfg.FontDownload)
	cfg.MetricsEnabled = ParseBool("SURVEY_METRICS", cfg.MetricsEnabled)
	cfg.MetricsAddr = ParseString("SURVEY_METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = ParseString("SURVEY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("SURVEY_LOG_SERVICE", cfg.LogService)
	return cfg
}

// Normalize fills in derived defaults that depend on other fields.
func (c *AppConfig) Normalize() {
	if c.InboxDir == "" {
		c.InboxDir = filepath.Join(c.DataDir, "inbox")
	}
	if c.BadgerPath == "" {
		c.BadgerPath = filepath.Join(c.DataDir, "cache")
	}
}

// Validate checks the configuration for fatal mistakes before startup.
func (c *AppConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is empty")
	}
	if err := validateAddr(c.ListenAddr); err != nil {
		return fmt.Errorf("listen address %q: %w", c.ListenAddr, err)
	}
	if c.MetricsEnabled {
		if err := validateAddr(c.MetricsAddr); err != nil {
			return fmt.Errorf("metrics address %q: %w", c.MetricsAddr, err)
		}
	}
	switch c.CacheBackend {
	case CacheMemory, CacheBadger:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("cache backend %q requires SURVEY_REDIS_ADDR", c.CacheBackend)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.MaxUploadMB)
	}
	if c.MaxRows <= 0 || c.MaxColumns <= 0 {
		return fmt.Errorf("row/column limits must be positive (rows=%d, columns=%d)", c.MaxRows, c.MaxColumns)
	}
	if c.RateLimitEnabled && c.RateLimitRPM <= 0 {
		return fmt.Errorf("rate limit RPM must be positive, got %d", c.RateLimitRPM)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// EnsureDirs creates the data and inbox directories if they do not exist and
// verifies they are writable. Fail-fast startup check.
func (c *AppConfig) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.InboxDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
		probe := filepath.Join(dir, ".write-check")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			return fmt.Errorf("directory %q is not writable: %w", dir, err)
		}
		_ = os.Remove(probe)
	}
	return nil
}

func validateAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("address is empty")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if port == "" {
		return fmt.Errorf("missing port")
	}
	return nil
}
