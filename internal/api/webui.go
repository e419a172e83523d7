// SPDX-License-Identifier: MIT

package api

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/ExponentialDS/vid-text/internal/api/middleware"
)

//go:embed all:web
var uiFS embed.FS

// uiHandler serves the embedded web UI with caching rules split between
// the entry HTML and its static assets.
func uiHandler() http.Handler {
	subFS, err := fs.Sub(uiFS, "web")
	var fileServer http.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "UI not available", http.StatusInternalServerError)
	})
	if err == nil {
		fileServer = http.FileServer(http.FS(subFS))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", middleware.DefaultCSP)

		path := r.URL.Path
		if path == "/" || path == "/index.html" || path == "" || !strings.Contains(path, ".") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		} else {
			// Assets are not content-hashed, cache them briefly.
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}

		fileServer.ServeHTTP(w, r)
	})
}
