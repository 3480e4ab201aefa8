// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dinutsa/Survey-Analytics/internal/classify"
	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/log"
	"github.com/Dinutsa/Survey-Analytics/internal/metrics"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
	"github.com/Dinutsa/Survey-Analytics/internal/summary"
)

// Process runs classification and summarization over the selected row range.
// Questions are classified on the full dataset so codes stay stable across
// range selections; summaries count only the sliced rows.
func Process(ctx context.Context, ds *dataset.Dataset, cfg ProcessConfig) (res *Result, err error) {
	logger := log.WithComponentFromContext(ctx, "jobs")
	defer func() { metrics.RecordProcessRun(err) }()

	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("no dataset loaded")
	}

	from, to := cfg.From, cfg.To
	if from == 0 && to == 0 {
		from, to = ds.Bounds()
	}
	logger.Info().
		Str("event", "process.start").
		Int("from", from).
		Int("to", to).
		Int(log.FieldResponses, ds.Len()).
		Msg("starting processing run")

	sliced, err := ds.Slice(from, to)
	if err != nil {
		return nil, fmt.Errorf("slice rows %d-%d: %w", from, to, err)
	}

	questions := classify.Classify(ds)
	sums := summary.BuildAll(sliced, questions)

	byType := make(map[string]int, 5)
	summarizable := 0
	for _, q := range questions {
		byType[string(q.Type)]++
		if q.Type != classify.TypeTimestamp {
			summarizable++
		}
	}
	metrics.RecordQuestions(byType)

	res = &Result{
		Status: Status{
			LastRun:   time.Now(),
			Responses: sliced.Len(),
			Questions: summarizable,
		},
		Questions: questions,
		Summaries: sums,
		Sliced:    sliced,
		Info: report.Info{
			TotalResponses: ds.Len(),
			Processed:      sliced.Len(),
			RangeLabel:     fmt.Sprintf("Rows %d-%d of %d", from, to, ds.Len()),
		},
	}

	logger.Info().
		Str("event", "process.success").
		Int(log.FieldResponses, res.Status.Responses).
		Int("questions", res.Status.Questions).
		Msg("processing run completed")
	return res, nil
}
