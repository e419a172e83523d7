// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	vtlog "github.com/ExponentialDS/vid-text/internal/log"
)

// HeaderRequestID identifies a single request.
const HeaderRequestID = "X-Request-ID"

// HeaderCorrelationID ties requests from the same client workflow together.
const HeaderCorrelationID = "X-Correlation-ID"

// RequestID attaches a request ID to every request, honoring one the client
// already sent. An inbound correlation ID is echoed back and propagated so
// log lines across services can be joined.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := vtlog.ContextWithRequestID(r.Context(), reqID)
		if cid := r.Header.Get(HeaderCorrelationID); cid != "" {
			w.Header().Set(HeaderCorrelationID, cid)
			ctx = vtlog.ContextWithCorrelationID(ctx, cid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
