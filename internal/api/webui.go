// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"embed"
	"net/http"
	"time"
)

//go:embed webui/index.html
var webuiFS embed.FS

var startupTime = time.Now()

// handleIndex serves the embedded single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := webuiFS.ReadFile("webui/index.html")
	if err != nil {
		writeServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", startupTime, bytes.NewReader(data))
}
