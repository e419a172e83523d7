// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared across spans.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Video attributes
	VideoIDKey        = "video.id"
	VideoLanguageKey  = "video.language"
	VideoTrackKindKey = "video.track_kind"

	// Fetch pipeline attributes
	FetchStageKey   = "fetch.stage"
	FetchSourceKey  = "fetch.source"
	FetchFormatsKey = "fetch.formats"
	FetchCachedKey  = "fetch.cached"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// VideoAttributes creates video-related span attributes. Empty fields are
// omitted.
func VideoAttributes(videoID, languageCode, trackKind string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if videoID != "" {
		attrs = append(attrs, attribute.String(VideoIDKey, videoID))
	}
	if languageCode != "" {
		attrs = append(attrs, attribute.String(VideoLanguageKey, languageCode))
	}
	if trackKind != "" {
		attrs = append(attrs, attribute.String(VideoTrackKindKey, trackKind))
	}
	return attrs
}

// FetchAttributes creates fetch-pipeline span attributes.
func FetchAttributes(stage, source string, cached bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(FetchStageKey, stage),
		attribute.String(FetchSourceKey, source),
		attribute.Bool(FetchCachedKey, cached),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
