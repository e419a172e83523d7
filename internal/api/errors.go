// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/format"
	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/store"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code. Encoding
// failures are logged; the status line is already on the wire by then.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		vtlog.WithComponentFromContext(r.Context(), "api").Error().
			Err(err).
			Int("status", code).
			Msg("failed to encode JSON response")
	}
}

// RespondError writes a structured error response, carrying the request
// ID so clients can quote it back.
func RespondError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	writeJSON(w, r, status, errorBody{
		Error:     code,
		Detail:    detail,
		RequestID: vtlog.RequestIDFromContext(r.Context()),
	})
}

// respondFetchError maps a pipeline error onto an HTTP status and error
// code. Upstream rate limit responses forward the Retry-After hint.
func respondFetchError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := httpStatusFor(err)

	var yt *youtube.YTError
	if errors.As(err, &yt) && yt.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(yt.RetryAfter.Seconds())))
	}

	detail := err.Error()
	if status == http.StatusInternalServerError {
		vtlog.WithComponentFromContext(r.Context(), "api").Error().
			Err(err).
			Str(vtlog.FieldEvent, "request.internal_error").
			Msg("unmapped error in handler")
		detail = "An unexpected error occurred."
	}

	RespondError(w, r, status, code, detail)
}

// httpStatusFor translates domain errors into status codes. Client
// mistakes are 4xx, upstream trouble is 5xx with the flavor preserved.
func httpStatusFor(err error) (int, string) {
	var unknownFormat *format.ErrUnknown
	switch {
	case errors.Is(err, youtube.ErrInvalidVideoID):
		return http.StatusUnprocessableEntity, "invalid_video_id"
	case errors.As(err, &unknownFormat):
		return http.StatusUnprocessableEntity, "invalid_format"
	case errors.Is(err, youtube.ErrTranslationNotAvailable):
		return http.StatusUnprocessableEntity, "translation_unavailable"
	case errors.Is(err, youtube.ErrVideoUnavailable):
		return http.StatusNotFound, "video_unavailable"
	case errors.Is(err, youtube.ErrNoTranscriptFound):
		return http.StatusNotFound, "no_transcript"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, youtube.ErrTranscriptsDisabled):
		return http.StatusForbidden, "transcripts_disabled"
	case errors.Is(err, youtube.ErrAgeRestricted):
		return http.StatusForbidden, "age_restricted"
	case errors.Is(err, youtube.ErrRegionBlocked):
		return http.StatusForbidden, "region_blocked"
	case errors.Is(err, youtube.ErrRateLimited):
		return http.StatusTooManyRequests, "upstream_rate_limited"
	case errors.Is(err, youtube.ErrIPBlocked):
		return http.StatusBadGateway, "ip_blocked"
	case errors.Is(err, youtube.ErrUpstreamError),
		errors.Is(err, youtube.ErrUpstreamUnavailable),
		errors.Is(err, youtube.ErrUpstreamBadResponse):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, youtube.ErrTimeout):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, youtube.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "circuit_open"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
