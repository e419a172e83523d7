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

	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/metrics"
)

// exportFileServer serves written export files from <DataDir>/exports
// with checks against path traversal, symlink escapes and directory
// listing.
func (s *Server) exportFileServer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := vtlog.WithComponentFromContext(r.Context(), "files")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			metrics.IncFileRequest("method_not_allowed")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Path
		if isPathTraversal(path) {
			logger.Warn().
				Str(vtlog.FieldEvent, "file_req.denied").
				Str(vtlog.FieldPath, r.URL.Path).
				Str("reason", "path_escape").
				Msg("detected traversal sequence")
			metrics.IncFileRequest("path_escape")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if strings.HasSuffix(path, "/") || path == "" || path == "/" {
			metrics.IncFileRequest("directory_listing")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		exportsDir, err := filepath.Abs(filepath.Join(s.cfg.DataDir, "exports"))
		if err != nil {
			logger.Error().Err(err).Str(vtlog.FieldEvent, "file_req.internal_error").Msg("could not resolve exports dir")
			metrics.IncFileRequest("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		fullPath := filepath.Join(exportsDir, path)

		realPath, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				metrics.IncFileRequest("not_found")
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Str(vtlog.FieldEvent, "file_req.internal_error").Str(vtlog.FieldPath, fullPath).Msg("could not evaluate symlinks")
			metrics.IncFileRequest("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		realExportsDir, err := filepath.EvalSymlinks(exportsDir)
		if err != nil {
			logger.Error().Err(err).Str(vtlog.FieldEvent, "file_req.internal_error").Msg("could not evaluate symlinks on exports dir")
			metrics.IncFileRequest("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Containment check on the resolved paths catches symlink escapes
		// that the string checks above cannot.
		relPath, err := filepath.Rel(realExportsDir, realPath)
		if err != nil || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
			logger.Warn().
				Str(vtlog.FieldEvent, "file_req.denied").
				Str(vtlog.FieldPath, path).
				Str("resolved_path", realPath).
				Str("reason", "path_escape").
				Msg("path escapes exports directory")
			metrics.IncFileRequest("path_escape")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		f, err := os.Open(realPath)
		if err != nil {
			logger.Error().Err(err).Str(vtlog.FieldEvent, "file_req.internal_error").Str(vtlog.FieldPath, realPath).Msg("could not open file for serving")
			metrics.IncFileRequest("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn().Err(err).Str(vtlog.FieldPath, realPath).Msg("failed to close file")
			}
		}()

		info, err := f.Stat()
		if err != nil {
			logger.Error().Err(err).Str(vtlog.FieldEvent, "file_req.internal_error").Str(vtlog.FieldPath, realPath).Msg("could not stat opened file")
			metrics.IncFileRequest("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if info.IsDir() {
			metrics.IncFileRequest("directory_listing")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// Weak ETag from modtime and size. Exports are rewritten
		// atomically, so this pair changes whenever the content does.
		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			metrics.IncFileRequest("not_modified")
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if ct := exportContentType(info.Name()); ct != "" {
			w.Header().Set("Content-Type", ct)
		}

		logger.Info().
			Str(vtlog.FieldEvent, "file_req.allowed").
			Str(vtlog.FieldPath, path).
			Msg("serving export file")
		metrics.IncFileRequest("allowed")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// exportContentType maps export extensions to explicit content types so
// subtitle files do not fall back to octet-stream sniffing.
func exportContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	case ".srt":
		return "application/x-subrip; charset=utf-8"
	case ".vtt":
		return "text/vtt; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return ""
	}
}

// isPathTraversal performs robust checks against path traversal
// attempts. It decodes the input multiple times to catch double
// encoding, applies Unicode normalization, and searches for dangerous
// sequences including NULs.
func isPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	dangerSubstrings := []string{
		"..",        // parent traversal
		"..\\",      // windows-style backslash
		"%00",       // encoded NUL
		"\x00",      // literal NUL
		"%c0%ae",    // overlong UTF-8 for '.'
		"%e0%80%ae", // another overlong variant
	}
	for _, pat := range dangerSubstrings {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	if strings.IndexByte(decoded, 0x00) >= 0 {
		return true
	}

	normalized := strings.ToLower(norm.NFC.String(decoded))
	return strings.Contains(normalized, "..")
}
