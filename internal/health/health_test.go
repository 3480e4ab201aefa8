// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker struct {
	name   string
	result CheckResult
}

func (c staticChecker) Name() string { return c.name }

func (c staticChecker) Check(context.Context) CheckResult { return c.result }

func static(name string, s Status) staticChecker {
	return staticChecker{name, CheckResult{Status: s}}
}

func TestServeHealthAlways200(t *testing.T) {
	m := NewManager("test")
	m.Register(static("broken", StatusUnhealthy))

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, 200, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Nil(t, resp.Checks, "non-verbose health omits component checks")
}

func TestServeHealthVerbose(t *testing.T) {
	m := NewManager("test")
	m.Register(static("broken", StatusUnhealthy))

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest("GET", "/healthz?verbose=true", nil))

	assert.Equal(t, 200, rec.Code, "liveness stays 200 even when components fail")

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks, "broken")
}

func TestServeReady(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantStatus Status
	}{
		{"no checkers", nil, 200, StatusHealthy},
		{"all healthy", []Checker{static("a", StatusHealthy)}, 200, StatusHealthy},
		{"degraded is ready", []Checker{static("a", StatusDegraded)}, 200, StatusDegraded},
		{"unhealthy is not ready", []Checker{static("a", StatusHealthy), static("b", StatusUnhealthy)}, 503, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test")
			for _, c := range tt.checkers {
				m.Register(c)
			}

			rec := httptest.NewRecorder()
			m.ServeReady(rec, httptest.NewRequest("GET", "/readyz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestDataDirChecker(t *testing.T) {
	dir := t.TempDir()
	c := NewDataDirChecker(dir)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	c = NewDataDirChecker(filepath.Join(dir, "missing"))
	assert.Equal(t, StatusUnhealthy, c.Check(context.Background()).Status)

	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	c = NewDataDirChecker(file)
	assert.Equal(t, StatusUnhealthy, c.Check(context.Background()).Status)
}

func TestDatasetChecker(t *testing.T) {
	tests := []struct {
		name      string
		responses int
		lastRun   time.Time
		lastError string
		want      Status
	}{
		{"nothing loaded", 0, time.Time{}, "", StatusDegraded},
		{"loaded not processed", 10, time.Time{}, "", StatusDegraded},
		{"processed", 10, time.Now(), "", StatusHealthy},
		{"last run failed", 10, time.Now(), "boom", StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDatasetChecker(func() (int, time.Time, string) {
				return tt.responses, tt.lastRun, tt.lastError
			})
			assert.Equal(t, tt.want, c.Check(context.Background()).Status)
		})
	}
}
