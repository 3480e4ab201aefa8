// SPDX-License-Identifier: MIT

package config

import "time"

// ServerConfig holds HTTP server tuning knobs.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
}

// ParseServerConfig reads server tuning from the environment.
// Write timeout defaults generously because report generation streams
// multi-megabyte documents.
func ParseServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:      ParseString("SURVEY_LISTEN", ":8080"),
		ReadTimeout:     ParseDuration("SURVEY_SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    ParseDuration("SURVEY_SERVER_WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:     ParseDuration("SURVEY_SERVER_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: ParseDuration("SURVEY_SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxHeaderBytes:  ParseInt("SURVEY_SERVER_MAX_HEADER_BYTES", 1<<20),
	}
}
