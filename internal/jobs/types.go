// SPDX-License-Identifier: MIT

package jobs

import (
	"errors"
	"time"

	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/format"
	"github.com/ExponentialDS/vid-text/internal/report"
	"github.com/ExponentialDS/vid-text/internal/transcript"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

// FetchRequest describes one transcript fetch. URL and VideoID are
// alternatives; URL wins when both are set.
type FetchRequest struct {
	URL     string `json:"url,omitempty"`
	VideoID string `json:"videoId,omitempty"`
	// Languages overrides the configured language priority list.
	Languages []string `json:"languages,omitempty"`
	// TranslateTo overrides the configured translation fallback target.
	TranslateTo string `json:"translateTo,omitempty"`
	// Formats selects which export files to write. Empty uses the default
	// set.
	Formats []string `json:"formats,omitempty"`
	// PreserveFormatting keeps inline caption markup (<b>, <i>).
	PreserveFormatting bool `json:"preserveFormatting,omitempty"`
	// SkipCache forces a fresh upstream fetch.
	SkipCache bool `json:"skipCache,omitempty"`
}

// FetchResult is the outcome of a successful fetch.
type FetchResult struct {
	Record     *archive.Record        `json:"record"`
	Pick       transcript.PickInfo    `json:"pick"`
	Transcript *transcript.Transcript `json:"transcript"`
	Report     *report.Report         `json:"report"`
	// Exports maps format name to the path of the written file, relative
	// to the data dir.
	Exports map[string]string `json:"exports,omitempty"`
	// Cached is true when the transcript came out of the durable store
	// without touching YouTube.
	Cached bool `json:"cached"`
}

// Status is the most recent pipeline outcome, feeding /api/v1/status and
// the last-fetch health check.
type Status struct {
	LastRun  time.Time `json:"last_run"`
	VideoID  string    `json:"video_id,omitempty"`
	Segments int       `json:"segments"`
	Error    string    `json:"error,omitempty"`
}

// Config holds pipeline settings.
type Config struct {
	DataDir string
	// Languages is the default language priority list.
	Languages []string
	// TranslateTo is the default translation fallback target.
	TranslateTo string
	// PreserveFormatting is the default for requests that leave it unset.
	PreserveFormatting bool
	// Formats written when a request names none.
	DefaultFormats []string
	// CacheTTL bounds track list and metadata memoization.
	CacheTTL time.Duration
	// StoreTTL bounds stored transcripts; zero keeps them forever.
	StoreTTL time.Duration
}

// Outcome classes for metrics and archive records.
const (
	OutcomeOK                     = "ok"
	OutcomeInvalidID              = "invalid_id"
	OutcomeInvalidFormat          = "invalid_format"
	OutcomeUnavailable            = "unavailable"
	OutcomeDisabled               = "disabled"
	OutcomeNotFound               = "not_found"
	OutcomeTranslationUnavailable = "translation_unavailable"
	OutcomeAgeRestricted          = "age_restricted"
	OutcomeRegionBlocked          = "region_blocked"
	OutcomeIPBlocked              = "ip_blocked"
	OutcomeRateLimited            = "rate_limited"
	OutcomeUpstream               = "upstream"
	OutcomeTimeout                = "timeout"
	OutcomeCircuitOpen            = "circuit_open"
	OutcomeInternal               = "internal"
)

// OutcomeFromError maps an error to its outcome class.
func OutcomeFromError(err error) string {
	var unknownFormat *format.ErrUnknown
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, youtube.ErrInvalidVideoID):
		return OutcomeInvalidID
	case errors.As(err, &unknownFormat):
		return OutcomeInvalidFormat
	case errors.Is(err, youtube.ErrVideoUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, youtube.ErrTranscriptsDisabled):
		return OutcomeDisabled
	case errors.Is(err, youtube.ErrNoTranscriptFound):
		return OutcomeNotFound
	case errors.Is(err, youtube.ErrTranslationNotAvailable):
		return OutcomeTranslationUnavailable
	case errors.Is(err, youtube.ErrAgeRestricted):
		return OutcomeAgeRestricted
	case errors.Is(err, youtube.ErrRegionBlocked):
		return OutcomeRegionBlocked
	case errors.Is(err, youtube.ErrIPBlocked):
		return OutcomeIPBlocked
	case errors.Is(err, youtube.ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, youtube.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, youtube.ErrCircuitOpen):
		return OutcomeCircuitOpen
	case errors.Is(err, youtube.ErrUpstreamError),
		errors.Is(err, youtube.ErrUpstreamUnavailable),
		errors.Is(err, youtube.ErrUpstreamBadResponse):
		return OutcomeUpstream
	default:
		return OutcomeInternal
	}
}
