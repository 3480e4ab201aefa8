// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dinutsa/Survey-Analytics/internal/config"
)

func TestRequireTokenDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/reset", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireToken(t *testing.T) {
	s := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.APIToken = "s3cret"
	})
	router := s.Router()

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong bearer", "Authorization", "Bearer nope", http.StatusUnauthorized},
		{"wrong header token", "X-API-Token", "nope", http.StatusUnauthorized},
		{"bearer", "Authorization", "Bearer s3cret", http.StatusOK},
		{"header token", "X-API-Token", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/reset", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTokenNotRequiredForReads(t *testing.T) {
	s := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.APIToken = "s3cret"
	})
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, extractToken(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", extractToken(req))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, extractToken(req))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Token", "xyz")
	assert.Equal(t, "xyz", extractToken(req))

	// tokens in query parameters are never accepted
	req = httptest.NewRequest("GET", "/?token=abc", nil)
	assert.Empty(t, extractToken(req))
}
