// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus metrics for the survey pipeline.
// Label cardinality stays bounded: question codes, file names and dataset
// fingerprints never become labels.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatasetLoadsTotal counts dataset (re)loads by outcome.
	DatasetLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_dataset_loads_total",
		Help: "Total number of dataset load attempts, by outcome (ok/error).",
	}, []string{"outcome"})

	// ResponsesLoaded tracks the row count of the currently loaded dataset.
	ResponsesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "survey_responses_loaded",
		Help: "Number of responses in the currently loaded dataset.",
	})

	// QuestionsByType tracks the classified question count per answer type.
	QuestionsByType = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "survey_questions",
		Help: "Number of classified questions, by answer type.",
	}, []string{"type"})

	// ProcessRunsTotal counts summarization runs by outcome.
	ProcessRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_process_runs_total",
		Help: "Total number of processing runs, by outcome (ok/error).",
	}, []string{"outcome"})

	// ReportsBuiltTotal counts rendered reports by format and outcome.
	ReportsBuiltTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_reports_built_total",
		Help: "Total number of report builds, by format and outcome (ok/error/cached).",
	}, []string{"format", "outcome"})

	// ReportBuildDuration observes render latency per format.
	ReportBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "survey_report_build_duration_seconds",
		Help:    "Report render duration in seconds, by format.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"format"})

	// UploadRejectsTotal counts rejected uploads by reason.
	UploadRejectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_upload_rejects_total",
		Help: "Total number of rejected uploads, by reason (too_large/bad_file/limits).",
	}, []string{"reason"})

	// HTTPRequestsTotal counts API requests by route pattern, method and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_http_requests_total",
		Help: "Total number of HTTP requests, by route, method and status class.",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration observes request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "survey_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// RecordDatasetLoad records one load attempt and, on success, the row count.
func RecordDatasetLoad(responses int, err error) {
	if err != nil {
		DatasetLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	DatasetLoadsTotal.WithLabelValues("ok").Inc()
	ResponsesLoaded.Set(float64(responses))
}

// RecordQuestions resets and sets the per-type question gauges.
func RecordQuestions(byType map[string]int) {
	QuestionsByType.Reset()
	for t, n := range byType {
		QuestionsByType.WithLabelValues(t).Set(float64(n))
	}
}

// RecordProcessRun records one summarization run.
func RecordProcessRun(err error) {
	if err != nil {
		ProcessRunsTotal.WithLabelValues("error").Inc()
		return
	}
	ProcessRunsTotal.WithLabelValues("ok").Inc()
}

// RecordReportBuild records one report render with its duration.
func RecordReportBuild(format string, d time.Duration, err error) {
	if err != nil {
		ReportsBuiltTotal.WithLabelValues(format, "error").Inc()
		return
	}
	ReportsBuiltTotal.WithLabelValues(format, "ok").Inc()
	ReportBuildDuration.WithLabelValues(format).Observe(d.Seconds())
}

// RecordReportCached records a cache hit that skipped rendering.
func RecordReportCached(format string) {
	ReportsBuiltTotal.WithLabelValues(format, "cached").Inc()
}

// RecordUploadReject records one rejected upload.
func RecordUploadReject(reason string) {
	UploadRejectsTotal.WithLabelValues(reason).Inc()
}
