// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"

	vtlog "github.com/ExponentialDS/vid-text/internal/log"
)

// Recoverer ensures panics inside downstream handlers do not crash the
// process. It logs the panic with its stack and returns a 500 JSON body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 8192)
				n := runtime.Stack(buf, false)

				reqID := vtlog.RequestIDFromContext(r.Context())
				if reqID == "" {
					// The recoverer sits outside RequestID, so the
					// panicking frame's context is not visible here.
					// The response header map is shared and already set.
					reqID = w.Header().Get(HeaderRequestID)
				}
				logger := vtlog.WithComponentFromContext(r.Context(), "panic-recovery")
				logger.Error().
					Str(vtlog.FieldEvent, "panic.recovered").
					Str("method", r.Method).
					Str(vtlog.FieldPath, r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Str(vtlog.FieldRequestID, reqID).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf[:n])).
					Msg("panic recovered in HTTP handler")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":     "internal",
					"detail":    "An unexpected error occurred.",
					"requestId": reqID,
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
