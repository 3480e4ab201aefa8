// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend string // "memory", "redis" or "badger"
	Redis   RedisConfig
	// BadgerDir is the on-disk store location for the badger backend.
	BadgerDir string
	// CleanupInterval drives the memory backend's janitor.
	CleanupInterval time.Duration
}

// New builds the configured cache backend.
func New(ctx context.Context, opts Options, logger zerolog.Logger) (Cache, error) {
	switch opts.Backend {
	case "", "memory":
		interval := opts.CleanupInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return NewMemory(interval), nil
	case "redis":
		return NewRedis(ctx, opts.Redis, logger)
	case "badger":
		return NewBadger(opts.BadgerDir, logger)
	}
	return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
}
