// SPDX-License-Identifier: MIT

package youtube

import (
	"errors"
	"strings"
	"testing"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

func sampleTrackList() TrackList {
	return TrackList{
		VideoID: "dQw4w9WgXcQ",
		Tracks: []CaptionTrack{
			{BaseURL: "https://t/en-asr?lang=en", Name: "English (auto-generated)", LanguageCode: "en", Kind: "asr", IsTranslatable: true},
			{BaseURL: "https://t/en?lang=en", Name: "English", LanguageCode: "en", IsTranslatable: true},
			{BaseURL: "https://t/de?lang=de", Name: "German", LanguageCode: "de", IsTranslatable: true},
		},
		TranslationLanguages: []TranslationLanguage{
			{Code: "es", Name: "Spanish"},
			{Code: "ja", Name: "Japanese"},
		},
	}
}

func TestSelect_DirectManualBeforeGenerated(t *testing.T) {
	sel, err := Select(sampleTrackList(), []string{"en"}, "en")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if sel.Info.Source != transcript.SourceDirect {
		t.Errorf("source = %q, want direct", sel.Info.Source)
	}
	if sel.Track.Generated() {
		t.Error("manual track should win over generated")
	}
	if sel.Info.LanguageCode != "en" {
		t.Errorf("language code = %q", sel.Info.LanguageCode)
	}
}

func TestSelect_PreferenceOrder(t *testing.T) {
	sel, err := Select(sampleTrackList(), []string{"de", "en"}, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Track.LanguageCode != "de" {
		t.Errorf("selected %q, want de (first preference)", sel.Track.LanguageCode)
	}
}

func TestSelect_BaseLanguageMatch(t *testing.T) {
	list := TrackList{
		VideoID: "dQw4w9WgXcQ",
		Tracks: []CaptionTrack{
			{BaseURL: "https://t/en-GB", Name: "English (United Kingdom)", LanguageCode: "en-GB"},
		},
	}

	sel, err := Select(list, []string{"en"}, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Info.Source != transcript.SourceDirect {
		t.Errorf("source = %q, want direct for base-language match", sel.Info.Source)
	}
	if sel.Track.LanguageCode != "en-GB" {
		t.Errorf("selected %q", sel.Track.LanguageCode)
	}
}

func TestSelect_TranslationFallback(t *testing.T) {
	sel, err := Select(sampleTrackList(), []string{"ja"}, "ja")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if sel.Info.Source != transcript.SourceTranslated {
		t.Fatalf("source = %q, want translated", sel.Info.Source)
	}
	if sel.Info.TranslatedFrom != "en" {
		t.Errorf("translated from %q, want en (manual source preferred)", sel.Info.TranslatedFrom)
	}
	if sel.Info.LanguageCode != "ja" {
		t.Errorf("language code = %q, want ja", sel.Info.LanguageCode)
	}
	if !strings.Contains(sel.Track.BaseURL, "tlang=ja") {
		t.Errorf("track url %q missing tlang", sel.Track.BaseURL)
	}
}

func TestSelect_FirstAvailableFallback(t *testing.T) {
	list := sampleTrackList()
	// Wanted language is not offered for translation either.
	sel, err := Select(list, []string{"tlh"}, "tlh")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Info.Source != transcript.SourceFirstAvailable {
		t.Fatalf("source = %q, want first_available", sel.Info.Source)
	}
	if sel.Track.LanguageCode != "en" {
		t.Errorf("selected %q, want first listed track", sel.Track.LanguageCode)
	}
}

func TestSelect_NoTranslationWithoutTarget(t *testing.T) {
	sel, err := Select(sampleTrackList(), []string{"ja"}, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Info.Source != transcript.SourceFirstAvailable {
		t.Errorf("source = %q, translation must be skipped without a target", sel.Info.Source)
	}
}

func TestSelect_EmptyList(t *testing.T) {
	_, err := Select(TrackList{VideoID: "dQw4w9WgXcQ"}, []string{"en"}, "en")
	if !errors.Is(err, ErrNoTranscriptFound) {
		t.Fatalf("expected ErrNoTranscriptFound, got %v", err)
	}
}

func TestSelectStrict_FailsInsteadOfFallback(t *testing.T) {
	_, err := SelectStrict(sampleTrackList(), []string{"tlh"}, "tlh")
	if !errors.Is(err, ErrNoTranscriptFound) {
		t.Fatalf("expected ErrNoTranscriptFound, got %v", err)
	}

	sel, err := SelectStrict(sampleTrackList(), []string{"de"}, "")
	if err != nil {
		t.Fatalf("SelectStrict with served language: %v", err)
	}
	if sel.Track.LanguageCode != "de" {
		t.Errorf("selected %q, want de", sel.Track.LanguageCode)
	}
}

func TestSameBaseLanguage(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"en", "en-US", true},
		{"en-GB", "en-US", true},
		{"pt-BR", "pt", true},
		{"de", "en", false},
		{"zh-Hans", "zh-Hant", true},
		{"en", "en", true},
	}

	for _, tt := range tests {
		if got := sameBaseLanguage(tt.a, tt.b); got != tt.want {
			t.Errorf("sameBaseLanguage(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
