// SPDX-License-Identifier: MIT

// Package jobs runs the survey processing pipeline: slice the loaded dataset,
// classify its columns, build frequency summaries and render report files.
package jobs

import (
	"time"

	"github.com/Dinutsa/Survey-Analytics/internal/classify"
	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
	"github.com/Dinutsa/Survey-Analytics/internal/summary"
)

// Status describes the last processing run.
type Status struct {
	LastRun   time.Time `json:"last_run"`
	Responses int       `json:"responses"`
	Questions int       `json:"questions"`
	Error     string    `json:"error,omitempty"`
}

// ProcessConfig selects the row range to process. Rows are 1-based and
// inclusive; zero values mean the full dataset.
type ProcessConfig struct {
	From int
	To   int
}

// Result is the output of one processing run.
type Result struct {
	Status    Status
	Questions []classify.Question
	Summaries []summary.QuestionSummary
	// Sliced is the processed row range.
	Sliced *dataset.Dataset
	Info   report.Info
}

// ReportConfig controls report rendering and caching.
type ReportConfig struct {
	// DataDir receives the rendered files (survey.xlsx etc.).
	DataDir string
	// Formats to render; nil means every supported format.
	Formats []report.Format
	// TTL bounds how long rendered documents stay cached.
	TTL time.Duration
}
