// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/renameio/v2"

	"github.com/Dinutsa/Survey-Analytics/internal/cache"
	"github.com/Dinutsa/Survey-Analytics/internal/jobs"
	"github.com/Dinutsa/Survey-Analytics/internal/log"
	"github.com/Dinutsa/Survey-Analytics/internal/metrics"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
)

// statusResponse is the GET /api/status body.
type statusResponse struct {
	Status        jobs.Status  `json:"status"`
	Responses     int          `json:"responses"`
	Processing    bool         `json:"processing"`
	CacheStats    *cache.Stats `json:"cache_stats,omitempty"`
	Version       string       `json:"version,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := statusResponse{
		Status:        s.status,
		Responses:     dsLen(s.ds),
		Processing:    s.processing.Load(),
		Version:       s.cfg.Version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	s.mu.RUnlock()

	if s.cache != nil {
		stats := s.cache.Stats()
		resp.CacheStats = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// uploadResponse is the POST /api/upload body.
type uploadResponse struct {
	Saved     []string `json:"saved"`
	Responses int      `json:"responses"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RecordUploadReject("too_large")
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB))
			return
		}
		metrics.RecordUploadReject("bad_file")
		writeBadRequest(w, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		metrics.RecordUploadReject("bad_file")
		writeBadRequest(w, fmt.Errorf("no files in upload; use form field %q", "files"))
		return
	}

	saved := make([]string, 0, len(headers))
	for _, fh := range headers {
		name, err := sanitizeWorkbookName(fh.Filename)
		if err != nil {
			metrics.RecordUploadReject("bad_file")
			writeBadRequest(w, err)
			return
		}

		if err := s.saveUpload(fh, name); err != nil {
			logger.Error().Err(err).Str("event", "upload.save_failed").Str("file", name).Msg("saving upload failed")
			writeServerError(w, fmt.Errorf("save %s: %w", name, err))
			return
		}
		saved = append(saved, name)
	}

	if err := s.ReloadInbox(r.Context()); err != nil {
		// The merged inbox no longer loads (header mismatch, limits). Remove
		// the files just written so later reloads are not wedged on them;
		// the in-memory dataset was not replaced.
		for _, name := range saved {
			if rmErr := os.Remove(filepath.Join(s.cfg.InboxDir, name)); rmErr != nil {
				logger.Error().
					Err(rmErr).
					Str("event", "upload.rollback_failed").
					Str("file", name).
					Msg("could not remove rejected upload")
			}
		}
		metrics.RecordUploadReject("limits")
		writeBadRequest(w, err)
		return
	}

	s.mu.RLock()
	responses := dsLen(s.ds)
	s.mu.RUnlock()

	logger.Info().
		Str("event", "upload.accepted").
		Strs("files", saved).
		Int(log.FieldResponses, responses).
		Msg("upload accepted")
	writeJSON(w, http.StatusOK, uploadResponse{Saved: saved, Responses: responses})
}

func (s *Server) saveUpload(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	return renameio.WriteFile(filepath.Join(s.cfg.InboxDir, name), data, 0o644)
}

// sanitizeWorkbookName keeps only the base name and requires an .xlsx
// extension, so uploads cannot plant files outside the inbox.
func sanitizeWorkbookName(raw string) (string, error) {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("empty file name")
	}
	if strings.HasPrefix(name, "~$") {
		return "", fmt.Errorf("refusing spreadsheet lock file %q", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return "", fmt.Errorf("unsupported file type %q, want .xlsx", filepath.Ext(name))
	}
	return name, nil
}

// processRequest is the optional POST /api/process body.
type processRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, fmt.Errorf("decode request body: %w", err))
			return
		}
	}

	res, err := s.process(r.Context(), jobs.ProcessConfig{From: req.From, To: req.To})
	if err != nil {
		if errors.Is(err, errProcessingBusy) {
			writeConflict(w, err.Error())
			return
		}
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Status)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	res := s.result
	s.mu.RUnlock()

	if res == nil {
		writeNotFound(w, "no processed results; run POST /api/process first")
		return
	}
	writeJSON(w, http.StatusOK, res.Questions)
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	res := s.result
	s.mu.RUnlock()

	if res == nil {
		writeNotFound(w, "no processed results; run POST /api/process first")
		return
	}
	writeJSON(w, http.StatusOK, res.Summaries)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s.mu.RLock()
	res := s.result
	s.mu.RUnlock()

	if res == nil {
		writeNotFound(w, "no processed results; run POST /api/process first")
		return
	}
	for _, sum := range res.Summaries {
		if strings.EqualFold(sum.Question.Code, code) {
			writeJSON(w, http.StatusOK, sum)
			return
		}
	}
	writeNotFound(w, fmt.Sprintf("unknown question code %q", code))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.RLock()
	res := s.result
	s.mu.RUnlock()

	if res == nil {
		writeNotFound(w, "no processed results; run POST /api/process first")
		return
	}

	paths, err := jobs.BuildReports(r.Context(), s.builder, s.cache, res, jobs.ReportConfig{
		DataDir: s.cfg.DataDir,
		Formats: []report.Format{format},
		TTL:     s.cfg.CacheTTL,
	})
	if err != nil {
		writeServerError(w, err)
		return
	}

	data, err := os.ReadFile(paths[format])
	if err != nil {
		writeServerError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if s.processing.Load() {
		writeConflict(w, "cannot reset while a processing run is in progress")
		return
	}

	s.mu.Lock()
	s.ds = nil
	s.result = nil
	s.status = jobs.Status{}
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Clear()
	}
	metrics.ResponsesLoaded.Set(0)

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str("event", "dataset.reset").
		Msg("dataset and cached reports dropped")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
