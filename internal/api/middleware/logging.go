// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	vtlog "github.com/ExponentialDS/vid-text/internal/log"
)

// RequestLogger emits one structured log line per completed request.
// Health probes stay at debug level to keep the log readable under
// frequent orchestrator polling.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		logger := vtlog.WithContext(r.Context(), vtlog.WithComponent("http"))
		evt := logger.Info()
		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			evt = logger.Error()
		case rw.statusCode >= http.StatusBadRequest:
			evt = logger.Warn()
		case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
			evt = logger.Debug()
		}
		evt.
			Str(vtlog.FieldEvent, "http.request").
			Str("method", r.Method).
			Str(vtlog.FieldPath, r.URL.Path).
			Str("route", routePattern(r)).
			Int("status", rw.statusCode).
			Int64("bytes", rw.written).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}
