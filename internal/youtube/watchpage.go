// SPDX-License-Identifier: MIT

package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// playerResponseMarker precedes the embedded player JSON on watch pages.
const playerResponseMarker = "ytInitialPlayerResponse = "

// CaptionTrack describes one caption track offered for a video.
type CaptionTrack struct {
	BaseURL        string `json:"baseUrl"`
	Name           string `json:"name"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind,omitempty"`
	IsTranslatable bool   `json:"isTranslatable"`
}

// Generated reports whether the track was produced by speech recognition
// rather than uploaded by the channel.
func (t CaptionTrack) Generated() bool {
	return t.Kind == "asr"
}

// TranslationLanguage is a language YouTube can translate a translatable
// track into.
type TranslationLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TrackList is everything the watch page reveals about a video's captions.
type TrackList struct {
	VideoID              string                `json:"videoId"`
	Tracks               []CaptionTrack        `json:"tracks"`
	TranslationLanguages []TranslationLanguage `json:"translationLanguages"`
}

// FindByLanguage returns the first track whose language code matches code
// exactly, preferring manually created tracks over generated ones.
func (l TrackList) FindByLanguage(code string) (CaptionTrack, bool) {
	var generated CaptionTrack
	var haveGenerated bool
	for _, t := range l.Tracks {
		if !strings.EqualFold(t.LanguageCode, code) {
			continue
		}
		if !t.Generated() {
			return t, true
		}
		if !haveGenerated {
			generated, haveGenerated = t, true
		}
	}
	return generated, haveGenerated
}

// PlayerInfo bundles the caption inventory and video metadata recovered
// from a single watch page fetch.
type PlayerInfo struct {
	Tracks TrackList
	Meta   VideoMetadata
}

// watch page JSON shapes, trimmed to the fields we read.

type playerResponse struct {
	PlayabilityStatus *playabilityStatus `json:"playabilityStatus"`
	Captions          *struct {
		Renderer *captionsRenderer `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	Microformat *struct {
		Renderer *microformatRenderer `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

type playabilityStatus struct {
	Status      string       `json:"status"`
	Reason      string       `json:"reason"`
	ErrorScreen *errorScreen `json:"errorScreen"`
}

type errorScreen struct {
	Renderer *errorMessageRenderer `json:"playerErrorMessageRenderer"`
}

type errorMessageRenderer struct {
	Subreason *runsOrText `json:"subreason"`
}

type captionsRenderer struct {
	CaptionTracks []struct {
		BaseURL        string      `json:"baseUrl"`
		Name           *runsOrText `json:"name"`
		LanguageCode   string      `json:"languageCode"`
		Kind           string      `json:"kind"`
		IsTranslatable bool        `json:"isTranslatable"`
	} `json:"captionTracks"`
	TranslationLanguages []struct {
		LanguageCode string      `json:"languageCode"`
		LanguageName *runsOrText `json:"languageName"`
	} `json:"translationLanguages"`
}

type microformatRenderer struct {
	Title            *runsOrText `json:"title"`
	LengthSeconds    string      `json:"lengthSeconds"`
	OwnerChannelName string      `json:"ownerChannelName"`
	ViewCount        string      `json:"viewCount"`
	PublishDate      string      `json:"publishDate"`
	Category         string      `json:"category"`
	Thumbnail        *struct {
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
}

// runsOrText handles YouTube's two interchangeable text encodings,
// {"simpleText": "..."} and {"runs": [{"text": "..."}, ...]}.
type runsOrText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (r *runsOrText) String() string {
	if r == nil {
		return ""
	}
	if r.SimpleText != "" {
		return r.SimpleText
	}
	var sb strings.Builder
	for _, run := range r.Runs {
		sb.WriteString(run.Text)
	}
	return sb.String()
}

// Lookup fetches the watch page for videoID and returns the caption
// inventory plus whatever metadata the page embeds. One upstream round
// trip covers both.
func (c *Client) Lookup(ctx context.Context, videoID string) (*PlayerInfo, error) {
	if err := validateVideoID(videoID); err != nil {
		return nil, err
	}

	watchURL := c.base + "/watch?v=" + url.QueryEscape(videoID)
	body, _, err := c.get(ctx, "lookup", videoID, watchURL, watchPageClassifier(videoID))
	if err != nil {
		return nil, err
	}

	resp, err := parseWatchPage(videoID, body)
	if err != nil {
		return nil, err
	}

	if err := classifyPlayability(videoID, resp.PlayabilityStatus); err != nil {
		return nil, err
	}
	if resp.Captions == nil || resp.Captions.Renderer == nil {
		return nil, &YTError{Sentinel: ErrTranscriptsDisabled, Operation: "lookup", VideoID: videoID}
	}

	info := &PlayerInfo{
		Tracks: TrackList{VideoID: videoID},
		Meta:   VideoMetadata{ID: videoID},
	}
	for _, raw := range resp.Captions.Renderer.CaptionTracks {
		info.Tracks.Tracks = append(info.Tracks.Tracks, CaptionTrack{
			BaseURL:        raw.BaseURL,
			Name:           raw.Name.String(),
			LanguageCode:   raw.LanguageCode,
			Kind:           raw.Kind,
			IsTranslatable: raw.IsTranslatable,
		})
	}
	for _, raw := range resp.Captions.Renderer.TranslationLanguages {
		info.Tracks.TranslationLanguages = append(info.Tracks.TranslationLanguages, TranslationLanguage{
			Code: raw.LanguageCode,
			Name: raw.LanguageName.String(),
		})
	}
	if len(info.Tracks.Tracks) == 0 {
		return nil, &YTError{Sentinel: ErrTranscriptsDisabled, Operation: "lookup", VideoID: videoID}
	}

	if mf := resp.Microformat; mf != nil && mf.Renderer != nil {
		r := mf.Renderer
		info.Meta.Title = r.Title.String()
		info.Meta.Author = r.OwnerChannelName
		info.Meta.Category = r.Category
		info.Meta.PublishDate = r.PublishDate
		if n, err := strconv.ParseInt(r.LengthSeconds, 10, 64); err == nil {
			info.Meta.LengthSeconds = n
		}
		if n, err := strconv.ParseInt(r.ViewCount, 10, 64); err == nil {
			info.Meta.Views = n
		}
		if r.Thumbnail != nil && len(r.Thumbnail.Thumbnails) > 0 {
			info.Meta.ThumbnailURL = r.Thumbnail.Thumbnails[len(r.Thumbnail.Thumbnails)-1].URL
		}
	}
	return info, nil
}

// watchPageClassifier flags responses that indicate a blocked egress IP.
// It runs inside the breaker window, a captcha interstitial counts like a
// transport failure there.
func watchPageClassifier(videoID string) responseClassifier {
	return func(status int, body []byte) error {
		if status != http.StatusOK {
			return &YTError{
				Sentinel:  ErrUpstreamBadResponse,
				Operation: "lookup",
				VideoID:   videoID,
				Status:    status,
				Body:      truncateBody(body),
			}
		}
		if isRecaptchaPage(body) {
			return &YTError{Sentinel: ErrIPBlocked, Operation: "lookup", VideoID: videoID}
		}
		return nil
	}
}

func isRecaptchaPage(body []byte) bool {
	return bytes.Contains(body, []byte(`class="g-recaptcha"`))
}

// parseWatchPage locates the embedded player response JSON and decodes it.
func parseWatchPage(videoID string, body []byte) (*playerResponse, error) {
	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		if isRecaptchaPage(body) {
			return nil, &YTError{Sentinel: ErrIPBlocked, Operation: "lookup", VideoID: videoID}
		}
		if !bytes.Contains(body, []byte(`"playabilityStatus":`)) {
			return nil, &YTError{Sentinel: ErrVideoUnavailable, Operation: "lookup", VideoID: videoID}
		}
		return nil, &YTError{
			Sentinel:  ErrUpstreamBadResponse,
			Operation: "lookup",
			VideoID:   videoID,
			Err:       fmt.Errorf("player response marker not found"),
		}
	}

	raw := extractJSONObject(body[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, &YTError{
			Sentinel:  ErrUpstreamBadResponse,
			Operation: "lookup",
			VideoID:   videoID,
			Err:       fmt.Errorf("unterminated player response object"),
		}
	}

	var resp playerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &YTError{
			Sentinel:  ErrUpstreamBadResponse,
			Operation: "lookup",
			VideoID:   videoID,
			Err:       fmt.Errorf("decode player response: %w", err),
		}
	}
	return &resp, nil
}

// extractJSONObject returns the balanced JSON object at the start of b,
// or nil when b does not open an object or the object never closes.
// String literals and escape sequences are honored so braces inside
// caption names do not confuse the depth count.
func extractJSONObject(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// classifyPlayability maps a non-OK playability status onto the package
// error taxonomy.
func classifyPlayability(videoID string, ps *playabilityStatus) error {
	if ps == nil || ps.Status == "" || ps.Status == "OK" {
		return nil
	}

	reason := ps.Reason
	var subreason string
	if ps.ErrorScreen != nil && ps.ErrorScreen.Renderer != nil {
		subreason = ps.ErrorScreen.Renderer.Subreason.String()
	}
	detail := reason
	if subreason != "" {
		detail = reason + ": " + subreason
	}
	lowerReason := strings.ToLower(reason)
	lowerAll := strings.ToLower(detail)

	wrap := func(sentinel error) error {
		return &YTError{Sentinel: sentinel, Operation: "lookup", VideoID: videoID, Body: detail}
	}

	switch ps.Status {
	case "ERROR":
		return wrap(ErrVideoUnavailable)
	case "LOGIN_REQUIRED":
		if strings.Contains(lowerAll, "bot") {
			return wrap(ErrIPBlocked)
		}
		if strings.Contains(lowerAll, "age") || strings.Contains(lowerAll, "inappropriate") {
			return wrap(ErrAgeRestricted)
		}
		return wrap(ErrIPBlocked)
	case "AGE_CHECK_REQUIRED", "CONTENT_CHECK_REQUIRED":
		return wrap(ErrAgeRestricted)
	case "UNPLAYABLE":
		if strings.Contains(lowerAll, "country") || strings.Contains(lowerReason, "not available in your") {
			return wrap(ErrRegionBlocked)
		}
		if strings.Contains(lowerAll, "age") {
			return wrap(ErrAgeRestricted)
		}
		return wrap(ErrVideoUnavailable)
	default:
		return wrap(ErrVideoUnavailable)
	}
}
