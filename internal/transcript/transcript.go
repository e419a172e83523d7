// SPDX-License-Identifier: MIT

// Package transcript holds the transcript data model shared by the fetch
// pipeline, the formatters and the report engine.
package transcript

import (
	"strings"
	"unicode"
)

// Segment is a single timed caption line. Start and Duration are seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the segment end time in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Transcript is a fetched caption track with its segments in upstream order.
type Transcript struct {
	VideoID      string `json:"video_id"`
	Language     string `json:"language"`
	LanguageCode string `json:"language_code"`
	// Generated marks auto-generated (ASR) tracks.
	Generated bool      `json:"generated"`
	Segments  []Segment `json:"segments"`
}

// Track pick sources recorded in PickInfo.
const (
	SourceDirect         = "direct"
	SourceTranslated     = "translated"
	SourceFirstAvailable = "first_available"
)

// PickInfo records how a track was chosen for a fetch.
type PickInfo struct {
	Source       string `json:"source"`
	Language     string `json:"language"`
	LanguageCode string `json:"language_code"`
	Generated    bool   `json:"generated"`
	// TranslatedFrom is the source language code when Source is "translated".
	TranslatedFrom string `json:"translated_from,omitempty"`
}

// PlainText joins all segment texts with newlines.
func (t Transcript) PlainText() string {
	var b strings.Builder
	for i, seg := range t.Segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// WordCount counts whitespace-separated words across all segments.
func (t Transcript) WordCount() int {
	n := 0
	for _, seg := range t.Segments {
		n += len(strings.FieldsFunc(seg.Text, unicode.IsSpace))
	}
	return n
}

// Duration returns the end time of the last segment in seconds.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	last := t.Segments[len(t.Segments)-1]
	return last.End()
}
