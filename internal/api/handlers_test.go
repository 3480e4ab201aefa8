// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinutsa/Survey-Analytics/internal/cache"
	"github.com/Dinutsa/Survey-Analytics/internal/config"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
	"github.com/Dinutsa/Survey-Analytics/internal/summary"
	"github.com/Dinutsa/Survey-Analytics/internal/testutil"
)

func newTestServer(t *testing.T, mutate func(*config.AppConfig)) *Server {
	t.Helper()

	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Version = "test"
	cfg.RateLimitEnabled = false
	cfg.MetricsEnabled = false
	if mutate != nil {
		mutate(&cfg)
	}
	cfg.Normalize()
	require.NoError(t, cfg.EnsureDirs())

	c := cache.NewMemory(0)
	t.Cleanup(func() { _ = c.Close() })

	builder := report.NewBuilder(report.Options{DataDir: cfg.DataDir})
	return New(cfg, builder, c)
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadProcessSummaryFlow(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	// upload
	wb := testutil.Workbook(t, testutil.SurveyRows())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "survey.xlsx", wb))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var up uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, []string{"survey.xlsx"}, up.Saved)
	assert.Equal(t, 6, up.Responses)

	// status reflects the load
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 6, st.Responses)
	assert.False(t, st.Processing)

	// summaries 404 before processing
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summaries", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// process a sub range
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/process",
		strings.NewReader(`{"from":1,"to":4}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// questions
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/questions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Q1"`)

	// single summary
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summary/Q1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sum summary.QuestionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "Q1", sum.Question.Code)
	assert.LessOrEqual(t, sum.Answered, 4)

	// unknown code
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summary/Q99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// reset drops everything
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summaries", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadAndReprocess(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	wb := testutil.Workbook(t, testutil.SurveyRows())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "survey.xlsx", wb))
	require.Equal(t, http.StatusOK, rec.Code)

	// before any processing run a reload keeps summaries empty
	require.NoError(t, s.ReloadAndReprocess(context.Background()))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summaries", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/process", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// once processed, a watcher-triggered reload reprocesses the full range
	require.NoError(t, s.ReloadAndReprocess(context.Background()))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summaries", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadRejectsBadFiles(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "notes.txt", []byte("plain text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "~$survey.xlsx", []byte("lock")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// traversal in the client-supplied name is stripped to the base name
	wb := testutil.Workbook(t, testutil.SurveyRows())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "../../escape.xlsx", wb))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, []string{"escape.xlsx"}, up.Saved)
}

func TestUploadMismatchedHeadersRollsBack(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	wb := testutil.Workbook(t, testutil.SurveyRows())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "survey.xlsx", wb))
	require.Equal(t, http.StatusOK, rec.Code)

	// a workbook with a different header row cannot merge with the inbox
	other := testutil.Workbook(t, [][]string{
		{"Name", "Score"},
		{"a", "1"},
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "other.xlsx", other))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// the rejected file is gone from the inbox and the old dataset survives
	_, err := os.Stat(filepath.Join(s.cfg.InboxDir, "other.xlsx"))
	assert.True(t, os.IsNotExist(err), "rejected upload should be removed")

	require.NoError(t, s.ReloadInbox(context.Background()))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 6, st.Responses)

	// retrying the same bad upload fails the same way instead of wedging
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "other.xlsx", other))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.MaxUploadMB = 1
	})
	router := s.Router()

	big := make([]byte, 2<<20)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "big.xlsx", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestProcessWithoutDataset(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/process", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessInvalidRange(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	wb := testutil.Workbook(t, testutil.SurveyRows())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "survey.xlsx", wb))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/process",
		strings.NewReader(`{"from":4,"to":2}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportDownload(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	wb := testutil.Workbook(t, testutil.SurveyRows())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "files", "survey.xlsx", wb))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/process", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/reports/xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.FormatExcel.ContentType(), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "survey.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip")

	// rendered file is now served by the file server too
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/files/survey.xlsx", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// unknown format
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/reports/csv", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportBeforeProcessing(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/reports/pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// ready but degraded: no dataset yet
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestIndexServed(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Survey Analytics")
}
