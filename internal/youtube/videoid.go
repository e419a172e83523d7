// SPDX-License-Identifier: MIT

package youtube

import (
	"regexp"
	"strings"
)

var (
	videoIDExact = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	// URL shapes accepted for extraction. Order matters: the first match wins.
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:v=)([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/live/([A-Za-z0-9_-]{11})`),
	}
)

// ExtractVideoID resolves a raw video ID or any supported YouTube URL shape
// (watch?v=, youtu.be/, /embed/, /shorts/, /live/) to the 11-character ID.
func ExtractVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", &YTError{Sentinel: ErrInvalidVideoID, Operation: "extract_video_id"}
	}

	if videoIDExact.MatchString(s) {
		return s, nil
	}

	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], nil
		}
	}

	return "", &YTError{Sentinel: ErrInvalidVideoID, Operation: "extract_video_id", Body: s}
}

// validateVideoID rejects anything that is not a bare 11-character ID.
// Client methods call it before building upstream URLs.
func validateVideoID(id string) error {
	if !videoIDExact.MatchString(id) {
		return &YTError{Sentinel: ErrInvalidVideoID, Operation: "validate_video_id", Body: id}
	}
	return nil
}
