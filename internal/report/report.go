// SPDX-License-Identifier: MIT

// Package report renders survey summaries into document formats:
// a tabular workbook (XLSX), PDF, a word-processor document (DOCX)
// and a slide deck (PPTX).
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/log"
	"github.com/Dinutsa/Survey-Analytics/internal/summary"
)

// Format identifies an output document format.
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatDocx  Format = "docx"
	FormatPptx  Format = "pptx"
)

// Formats lists every supported format in render order.
var Formats = []Format{FormatExcel, FormatPDF, FormatDocx, FormatPptx}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatExcel, FormatPDF, FormatDocx, FormatPptx:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Filename returns the canonical output file name for the format.
func (f Format) Filename() string { return "survey." + string(f) }

// ContentType returns the MIME type for download responses.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPptx:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
	return "application/octet-stream"
}

// Info carries report-wide metadata rendered on title pages.
type Info struct {
	TotalResponses int       // rows in the full dataset
	Processed      int       // rows in the selected range
	RangeLabel     string    // e.g. "Rows 10–50"
	GeneratedAt    time.Time // zero value means time.Now at render
}

func (i Info) generatedAt() time.Time {
	if i.GeneratedAt.IsZero() {
		return time.Now()
	}
	return i.GeneratedAt
}

// Options configures a Builder.
type Options struct {
	// FontPath points at a TTF with Cyrillic coverage for PDF rendering.
	// When empty the builder resolves (and optionally downloads) one under DataDir.
	FontPath     string
	DataDir      string
	FontDownload bool
}

// Builder renders reports. Safe for concurrent use.
type Builder struct {
	fonts  *fontResolver
	logger zerolog.Logger
}

// NewBuilder creates a report builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		fonts:  newFontResolver(opts),
		logger: log.WithComponent("report"),
	}
}

// Build renders one report format and returns the document bytes.
func (b *Builder) Build(ctx context.Context, format Format, info Info, sliced *dataset.Dataset, sums []summary.QuestionSummary) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatExcel:
		data, err = buildExcel(info, sliced, sums)
	case FormatPDF:
		data, err = b.buildPDF(ctx, info, sums)
	case FormatDocx:
		data, err = buildDocx(info, sums)
	case FormatPptx:
		data, err = buildPptx(info, sums)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", format, err)
	}
	b.logger.Info().
		Str("event", "report.rendered").
		Str(log.FieldFormat, string(format)).
		Int("questions", len(sums)).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("report rendered")
	return data, nil
}

// questionTitle renders the canonical "Q3. Text" heading.
func questionTitle(s summary.QuestionSummary) string {
	return s.Question.Code + ". " + s.Question.Text
}

const noDataPlaceholder = "(no tabulated data: open-ended question or no answers)"
