// SPDX-License-Identifier: MIT

package youtube

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrInvalidVideoID          = errors.New("youtube: not a valid video URL or 11-character video ID")
	ErrVideoUnavailable        = errors.New("youtube: video is unavailable")
	ErrTranscriptsDisabled     = errors.New("youtube: subtitles are disabled for this video")
	ErrNoTranscriptFound       = errors.New("youtube: no transcript found for the requested languages")
	ErrTranslationNotAvailable = errors.New("youtube: requested translation is not available")
	ErrAgeRestricted           = errors.New("youtube: video is age restricted and cannot be accessed anonymously")
	ErrRegionBlocked           = errors.New("youtube: video is not available in this region")
	ErrIPBlocked               = errors.New("youtube: requests from this IP are being blocked (captcha interstitial)")
	ErrRateLimited             = errors.New("youtube: rate limited by upstream (HTTP 429)")
	ErrUpstreamError           = errors.New("youtube: upstream internal error (5xx)")
	ErrUpstreamUnavailable     = errors.New("youtube: host unreachable or transport failure")
	ErrUpstreamBadResponse     = errors.New("youtube: invalid response format or malformed data")
	ErrTimeout                 = errors.New("youtube: request timed out")
)

// YTError is a rich error type that wraps the sentinel errors with context.
type YTError struct {
	Sentinel  error
	Operation string
	VideoID   string
	Status    int
	Body      string
	// RetryAfter carries the upstream Retry-After header value, zero when
	// absent. The client never retries on its own; callers decide.
	RetryAfter time.Duration
	Err        error // Nested lower-level error (e.g. net.Error)
}

func (e *YTError) Error() string {
	msg := fmt.Sprintf("youtube: %s: %v", e.Operation, e.Sentinel)
	if e.VideoID != "" {
		msg = fmt.Sprintf("%s (video %s)", msg, e.VideoID)
	}
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *YTError) Unwrap() error {
	return e.Sentinel
}
