// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldFetchID       = "fetch_id"
	FieldRecordID      = "record_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"

	// Video / transcript fields
	FieldVideoID      = "video_id"
	FieldLanguage     = "language"
	FieldLanguageCode = "language_code"
	FieldTrackKind    = "track_kind"
	FieldFormat       = "format"
	FieldSegments     = "segments"
	FieldWords        = "words"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
	FieldOutPath = "out_path"
)
