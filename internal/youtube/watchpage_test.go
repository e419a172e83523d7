// SPDX-License-Identifier: MIT

package youtube

import (
	"errors"
	"fmt"
	"testing"
)

const watchPageShell = `<!DOCTYPE html><html><head><title>watch</title></head><body>` +
	`<script nonce="x">var ytInitialPlayerResponse = %s;var meta = {};</script>` +
	`</body></html>`

const playerResponseFull = `{
	"playabilityStatus": {"status": "OK"},
	"captions": {
		"playerCaptionsTracklistRenderer": {
			"captionTracks": [
				{
					"baseUrl": "https://www.youtube.com/api/timedtext?v=dQw4w9WgXcQ&lang=en",
					"name": {"simpleText": "English"},
					"languageCode": "en",
					"isTranslatable": true
				},
				{
					"baseUrl": "https://www.youtube.com/api/timedtext?v=dQw4w9WgXcQ&lang=de&kind=asr",
					"name": {"runs": [{"text": "German "}, {"text": "(auto-generated)"}]},
					"languageCode": "de",
					"kind": "asr",
					"isTranslatable": true
				}
			],
			"translationLanguages": [
				{"languageCode": "es", "languageName": {"simpleText": "Spanish"}},
				{"languageCode": "fr", "languageName": {"runs": [{"text": "French"}]}}
			]
		}
	},
	"microformat": {
		"playerMicroformatRenderer": {
			"title": {"simpleText": "Never Gonna Give You Up"},
			"lengthSeconds": "212",
			"ownerChannelName": "Rick Astley",
			"viewCount": "1400000000",
			"publishDate": "2009-10-25",
			"category": "Music",
			"thumbnail": {"thumbnails": [
				{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg"},
				{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"}
			]}
		}
	}
}`

func watchPageHTML(playerJSON string) []byte {
	return []byte(fmt.Sprintf(watchPageShell, playerJSON))
}

func TestParseWatchPage_FullResponse(t *testing.T) {
	resp, err := parseWatchPage("dQw4w9WgXcQ", watchPageHTML(playerResponseFull))
	if err != nil {
		t.Fatalf("parseWatchPage: %v", err)
	}

	if resp.PlayabilityStatus == nil || resp.PlayabilityStatus.Status != "OK" {
		t.Fatalf("unexpected playability status: %+v", resp.PlayabilityStatus)
	}
	tracks := resp.Captions.Renderer.CaptionTracks
	if len(tracks) != 2 {
		t.Fatalf("expected 2 caption tracks, got %d", len(tracks))
	}
	if tracks[0].Name.String() != "English" {
		t.Errorf("track 0 name = %q, want English", tracks[0].Name.String())
	}
	if tracks[1].Name.String() != "German (auto-generated)" {
		t.Errorf("track 1 name = %q, want joined runs", tracks[1].Name.String())
	}
	if tracks[1].Kind != "asr" {
		t.Errorf("track 1 kind = %q, want asr", tracks[1].Kind)
	}
}

func TestParseWatchPage_Recaptcha(t *testing.T) {
	page := []byte(`<html><body><form><div class="g-recaptcha" data-sitekey="k"></div></form></body></html>`)
	_, err := parseWatchPage("dQw4w9WgXcQ", page)
	if !errors.Is(err, ErrIPBlocked) {
		t.Fatalf("expected ErrIPBlocked, got %v", err)
	}
}

func TestParseWatchPage_NoMarkerNoPlayability(t *testing.T) {
	page := []byte(`<html><body>nothing of interest</body></html>`)
	_, err := parseWatchPage("dQw4w9WgXcQ", page)
	if !errors.Is(err, ErrVideoUnavailable) {
		t.Fatalf("expected ErrVideoUnavailable, got %v", err)
	}
}

func TestParseWatchPage_TruncatedJSON(t *testing.T) {
	page := []byte(`<script>var ytInitialPlayerResponse = {"playabilityStatus": {"status": "OK"`)
	_, err := parseWatchPage("dQw4w9WgXcQ", page)
	if !errors.Is(err, ErrUpstreamBadResponse) {
		t.Fatalf("expected ErrUpstreamBadResponse, got %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"flat object", `{"a":1};rest`, `{"a":1}`},
		{"nested objects", `{"a":{"b":{"c":3}}}tail`, `{"a":{"b":{"c":3}}}`},
		{"brace inside string", `{"a":"}{"}...`, `{"a":"}{"}`},
		{"escaped quote inside string", `{"a":"say \"hi\" {now}"}x`, `{"a":"say \"hi\" {now}"}`},
		{"escaped backslash before quote", `{"a":"c:\\"}y`, `{"a":"c:\\"}`},
		{"exact object no tail", `{"a":[1,2,{"b":2}]}`, `{"a":[1,2,{"b":2}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSONObject([]byte(tt.input))
			if string(got) != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractJSONObject_Invalid(t *testing.T) {
	for _, input := range []string{"", "[1,2]", `{"a":1`, `{"a":"unterminated`} {
		if got := extractJSONObject([]byte(input)); got != nil {
			t.Errorf("extractJSONObject(%q) = %q, want nil", input, got)
		}
	}
}

func TestClassifyPlayability(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		reason   string
		sentinel error
	}{
		{"ok passes", "OK", "", nil},
		{"empty passes", "", "", nil},
		{"error is unavailable", "ERROR", "Video unavailable", ErrVideoUnavailable},
		{"login required bot check", "LOGIN_REQUIRED", "Sign in to confirm you're not a bot", ErrIPBlocked},
		{"login required age gate", "LOGIN_REQUIRED", "Sign in to confirm your age", ErrAgeRestricted},
		{"login required inappropriate", "LOGIN_REQUIRED", "This video may be inappropriate for some users.", ErrAgeRestricted},
		{"login required other", "LOGIN_REQUIRED", "Please sign in", ErrIPBlocked},
		{"age check required", "AGE_CHECK_REQUIRED", "", ErrAgeRestricted},
		{"unplayable geo", "UNPLAYABLE", "The uploader has not made this video available in your country", ErrRegionBlocked},
		{"unplayable other", "UNPLAYABLE", "This video is private", ErrVideoUnavailable},
		{"unknown status", "SOMETHING_NEW", "mystery", ErrVideoUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyPlayability("dQw4w9WgXcQ", &playabilityStatus{Status: tt.status, Reason: tt.reason})
			if tt.sentinel == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("got %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestClassifyPlayability_SubreasonGeo(t *testing.T) {
	ps := &playabilityStatus{
		Status: "UNPLAYABLE",
		Reason: "This video is unavailable",
		ErrorScreen: &errorScreen{
			Renderer: &errorMessageRenderer{
				Subreason: &runsOrText{SimpleText: "The uploader has not made this video available in your country"},
			},
		},
	}

	if err := classifyPlayability("dQw4w9WgXcQ", ps); !errors.Is(err, ErrRegionBlocked) {
		t.Fatalf("expected ErrRegionBlocked from subreason, got %v", err)
	}
}

func TestTrackListFindByLanguage(t *testing.T) {
	list := TrackList{
		Tracks: []CaptionTrack{
			{LanguageCode: "en", Kind: "asr", Name: "English (auto-generated)"},
			{LanguageCode: "en", Name: "English"},
			{LanguageCode: "de", Name: "German"},
		},
	}

	track, ok := list.FindByLanguage("en")
	if !ok {
		t.Fatal("expected en track")
	}
	if track.Generated() {
		t.Error("manual track should win over generated")
	}

	if _, ok := list.FindByLanguage("fr"); ok {
		t.Error("expected no fr track")
	}
}
