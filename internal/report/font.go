// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/Dinutsa/Survey-Analytics/internal/log"
)

// PDF output embeds a TTF with Cyrillic coverage; the built-in PDF core fonts
// cannot encode non-Latin answer labels. When no font is configured the
// resolver downloads DejaVu Sans into the data dir on first use.
const (
	fontURL      = "https://github.com/coreybutler/fonts/raw/master/ttf/DejaVuSans.ttf"
	fontFilename = "DejaVuSans.ttf"
)

type fontResolver struct {
	path     string // explicit font path; wins when set
	dataDir  string
	download bool
	client   *http.Client

	mu       sync.Mutex
	resolved string
}

func newFontResolver(opts Options) *fontResolver {
	return &fontResolver{
		path:     opts.FontPath,
		dataDir:  opts.DataDir,
		download: opts.FontDownload,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Resolve returns the path of a usable TTF file, downloading it if allowed.
// The result is cached for the lifetime of the resolver.
func (r *fontResolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != "" {
		return r.resolved, nil
	}

	if r.path != "" {
		if _, err := os.Stat(r.path); err != nil {
			return "", fmt.Errorf("configured font %q: %w", r.path, err)
		}
		r.resolved = r.path
		return r.resolved, nil
	}

	local := filepath.Join(r.dataDir, fontFilename)
	if _, err := os.Stat(local); err == nil {
		r.resolved = local
		return r.resolved, nil
	}

	if !r.download {
		return "", fmt.Errorf("no font at %q and font download is disabled", local)
	}
	if err := r.fetch(ctx, local); err != nil {
		return "", err
	}
	r.resolved = local
	return r.resolved, nil
}

func (r *fontResolver) fetch(ctx context.Context, dest string) error {
	logger := log.WithComponentFromContext(ctx, "report")
	logger.Info().
		Str("event", "font.download").
		Str("url", fontURL).
		Str(log.FieldPath, dest).
		Msg("downloading PDF font")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fontURL, nil)
	if err != nil {
		return fmt.Errorf("font request: %w", err)
	}
	// some mirrors reject requests without a browser-ish UA
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("download font: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download font: unexpected status %s", resp.Status)
	}

	pending, err := renameio.NewPendingFile(dest)
	if err != nil {
		return fmt.Errorf("create pending font file: %w", err)
	}
	defer func() {
		if cerr := pending.Cleanup(); cerr != nil {
			logger.Debug().Err(cerr).Msg("cleanup pending font file")
		}
	}()

	if _, err := io.Copy(pending, io.LimitReader(resp.Body, 16<<20)); err != nil {
		return fmt.Errorf("write font: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace font file: %w", err)
	}

	logger.Info().
		Str("event", "font.ready").
		Str(log.FieldPath, dest).
		Msg("PDF font available")
	return nil
}
