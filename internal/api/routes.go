// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dinutsa/Survey-Analytics/internal/api/middleware"
)

// Router builds the chi router with the canonical middleware stack.
func (s *Server) Router() *chi.Mux {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		EnableMetrics:    s.cfg.MetricsEnabled,
		EnableLogging:    true,
		RateLimitEnabled: s.cfg.RateLimitEnabled,
		RateLimitRPM:     s.cfg.RateLimitRPM,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/questions", s.handleQuestions)
		r.Get("/summaries", s.handleSummaries)
		r.Get("/summary/{code}", s.handleSummary)

		// report rendering is expensive, keep its own tighter limit
		r.With(middleware.ProcessRateLimit()).Get("/reports/{format}", s.handleReport)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/upload", s.handleUpload)
			r.With(middleware.ProcessRateLimit()).Post("/process", s.handleProcess)
			r.Post("/reset", s.handleReset)
		})
	})

	r.Handle("/files/*", http.StripPrefix("/files/", s.secureFileServer()))

	return r
}
