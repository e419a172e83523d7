// SPDX-License-Identifier: MIT

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	vtlog "github.com/ExponentialDS/vid-text/internal/log"
)

// requireAuth enforces the configured API token on the wrapped routes.
// An empty token leaves them open, matching a single-user deployment on
// a trusted network.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		logger := vtlog.WithComponentFromContext(r.Context(), "auth")

		if token == "" {
			logger.Warn().
				Str(vtlog.FieldEvent, "auth.missing_token").
				Str(vtlog.FieldPath, r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("authorization header missing")
			RespondError(w, r, http.StatusUnauthorized, "unauthorized", "Missing API token.")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
			logger.Warn().
				Str(vtlog.FieldEvent, "auth.invalid_token").
				Str(vtlog.FieldPath, r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("invalid api token")
			RespondError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid API token.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts a token from the Authorization header. Only the
// Bearer scheme is accepted; query parameters are deliberately not.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
