// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Dinutsa/Survey-Analytics/internal/log"
	"github.com/Dinutsa/Survey-Analytics/internal/report"
)

// secureFileServer serves rendered report files from the data directory with
// checks against path traversal, symlink escapes and directory listing.
func (s *Server) secureFileServer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "api")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Path
		if isPathTraversal(path) {
			logger.Warn().Str("event", "file_req.denied").Str(log.FieldPath, path).Str("reason", "path_escape").Msg("detected traversal sequence")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if path == "" || strings.HasSuffix(path, "/") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		absDataDir, err := filepath.Abs(s.cfg.DataDir)
		if err != nil {
			writeServerError(w, err)
			return
		}
		fullPath := filepath.Join(absDataDir, path)

		realPath, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}
			writeServerError(w, err)
			return
		}
		realDataDir, err := filepath.EvalSymlinks(absDataDir)
		if err != nil {
			writeServerError(w, err)
			return
		}

		// containment check survives symlink escapes: both sides resolved
		relPath, err := filepath.Rel(realDataDir, realPath)
		if err != nil || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
			logger.Warn().
				Str("event", "file_req.denied").
				Str(log.FieldPath, path).
				Str("resolved_path", realPath).
				Str("reason", "path_escape").
				Msg("path escapes data directory")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		f, err := os.Open(realPath) // #nosec G304 -- realPath validated above
		if err != nil {
			writeServerError(w, err)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			writeServerError(w, err)
			return
		}
		if info.IsDir() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=60")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if ct := contentTypeFor(info.Name()); ct != "" {
			w.Header().Set("Content-Type", ct)
		}

		logger.Debug().Str("event", "file_req.allowed").Str(log.FieldPath, path).Msg("serving file")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

func contentTypeFor(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if f, err := report.ParseFormat(ext); err == nil {
		return f.ContentType()
	}
	return ""
}

// isPathTraversal decodes the path multiple times to catch double encodings,
// normalizes Unicode and looks for traversal sequences and NUL bytes.
func isPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		}
		if decoded == prev {
			break
		}
	}
	decoded = norm.NFC.String(decoded)

	lower := strings.ToLower(decoded)
	if strings.Contains(lower, "..") || strings.Contains(lower, "\\") {
		return true
	}
	if strings.ContainsRune(decoded, 0) {
		return true
	}
	return false
}
