// SPDX-License-Identifier: MIT

package transcript

import (
	"math"
	"testing"
)

func sample() *Transcript {
	return &Transcript{
		VideoID:      "dQw4w9WgXcQ",
		Language:     "English",
		LanguageCode: "en",
		Segments: []Segment{
			{Text: "We're no strangers to love", Start: 0.21, Duration: 4.16},
			{Text: "You know the rules and so do I", Start: 4.38, Duration: 3.88},
			{Text: "A full commitment's what I'm thinking of", Start: 8.26, Duration: 4.0},
		},
	}
}

func TestSegmentEnd(t *testing.T) {
	s := Segment{Start: 4.38, Duration: 3.88}
	if math.Abs(s.End()-8.26) > 1e-9 {
		t.Errorf("End() = %v, want 8.26", s.End())
	}
}

func TestPlainText(t *testing.T) {
	got := sample().PlainText()
	want := "We're no strangers to love\nYou know the rules and so do I\nA full commitment's what I'm thinking of"
	if got != want {
		t.Errorf("PlainText() = %q", got)
	}
}

func TestPlainText_Empty(t *testing.T) {
	tr := &Transcript{VideoID: "dQw4w9WgXcQ"}
	if got := tr.PlainText(); got != "" {
		t.Errorf("PlainText() on empty transcript = %q", got)
	}
}

func TestWordCount(t *testing.T) {
	tr := sample()
	// 5 + 8 + 7 words across the three segments.
	if got := tr.WordCount(); got != 20 {
		t.Errorf("WordCount() = %d, want 20", got)
	}
}

func TestWordCount_CollapsesWhitespace(t *testing.T) {
	tr := &Transcript{Segments: []Segment{{Text: "  two\t words \n"}}}
	if got := tr.WordCount(); got != 2 {
		t.Errorf("WordCount() = %d, want 2", got)
	}
}

func TestDuration(t *testing.T) {
	if got := sample().Duration(); math.Abs(got-12.26) > 1e-9 {
		t.Errorf("Duration() = %v, want 12.26 (end of last segment)", got)
	}
	if got := (&Transcript{}).Duration(); got != 0 {
		t.Errorf("Duration() on empty transcript = %v", got)
	}
}
