// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dinutsa/Survey-Analytics/internal/cache"
	"github.com/Dinutsa/Survey-Analytics/internal/log"
	"github.com/Dinutsa/Survey-Analytics/internal/metrics"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
)

// BuildReports renders every requested format concurrently and writes the
// documents into cfg.DataDir. Rendered documents are cached by dataset
// fingerprint and format, so re-requesting an unchanged range skips the
// render. Returns the written path per format.
func BuildReports(ctx context.Context, b *report.Builder, c cache.Cache, res *Result, cfg ReportConfig) (map[report.Format]string, error) {
	logger := log.WithComponentFromContext(ctx, "jobs")

	formats := cfg.Formats
	if len(formats) == 0 {
		formats = report.Formats
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	var (
		mu    sync.Mutex
		paths = make(map[report.Format]string, len(formats))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		g.Go(func() error {
			data, err := renderOne(gctx, b, c, res, format, ttl)
			if err != nil {
				return err
			}

			path := filepath.Join(cfg.DataDir, format.Filename())
			if err := writeFile(gctx, path, data); err != nil {
				return fmt.Errorf("write %s report: %w", format, err)
			}

			logger.Info().
				Str("event", "report.written").
				Str(log.FieldFormat, string(format)).
				Str(log.FieldReportPath, path).
				Int("bytes", len(data)).
				Msg("report file written")

			mu.Lock()
			paths[format] = path
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func renderOne(ctx context.Context, b *report.Builder, c cache.Cache, res *Result, format report.Format, ttl time.Duration) ([]byte, error) {
	key := reportKey(res, format)
	if c != nil {
		if data, ok := c.Get(key); ok {
			metrics.RecordReportCached(string(format))
			return data, nil
		}
	}

	start := time.Now()
	data, err := b.Build(ctx, format, res.Info, res.Sliced, res.Summaries)
	metrics.RecordReportBuild(string(format), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if c != nil {
		c.Set(key, data, ttl)
	}
	return data, nil
}

// reportKey identifies one rendered document. The slice fingerprint already
// covers content and row range.
func reportKey(res *Result, format report.Format) string {
	return fmt.Sprintf("report:%s:%s", res.Sliced.Fingerprint(), format)
}
