// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// Deps contains the dependencies the daemon Manager runs.
type Deps struct {
	// Logger is the structured logger for the daemon.
	Logger zerolog.Logger

	// APIHandler serves the survey API and UI.
	APIHandler http.Handler

	// MetricsHandler serves Prometheus metrics on MetricsAddr (nil disables it).
	MetricsHandler http.Handler
	MetricsAddr    string

	// Watcher is a blocking worker observing the inbox directory (nil disables it).
	// It must return when its context is cancelled.
	Watcher func(ctx context.Context) error
}

// Validate checks that the required dependencies are present.
func (d *Deps) Validate() error {
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
