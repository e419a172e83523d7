// SPDX-License-Identifier: MIT

package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// FetchOptions tunes how a caption track is materialized.
type FetchOptions struct {
	// PreserveFormatting keeps inline markup such as <b> and <i> in the
	// segment text. It switches the fetch to the markup-carrying XML
	// variant of the timedtext endpoint.
	PreserveFormatting bool
}

// FetchTrack downloads one caption track and returns it as a transcript.
// The default path requests the json3 variant, which carries exact cue
// timing and plain text.
func (c *Client) FetchTrack(ctx context.Context, videoID string, track CaptionTrack, opts FetchOptions) (*transcript.Transcript, error) {
	if err := validateVideoID(videoID); err != nil {
		return nil, err
	}
	if track.BaseURL == "" {
		return nil, &YTError{Sentinel: ErrNoTranscriptFound, Operation: "fetch_track", VideoID: videoID}
	}

	if opts.PreserveFormatting {
		return c.fetchTrackXML(ctx, videoID, track)
	}

	fetchURL, err := trackURL(track.BaseURL, map[string]string{"fmt": "json3"})
	if err != nil {
		return nil, &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "fetch_track", VideoID: videoID, Err: err}
	}

	body, _, err := c.get(ctx, "fetch_track", videoID, fetchURL, timedtextClassifier("fetch_track", videoID))
	if err != nil {
		return nil, err
	}

	segments, err := parseJSON3(body)
	if err != nil {
		return nil, &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "fetch_track", VideoID: videoID, Err: err}
	}
	if len(segments) == 0 {
		return nil, &YTError{Sentinel: ErrNoTranscriptFound, Operation: "fetch_track", VideoID: videoID}
	}

	return &transcript.Transcript{
		VideoID:      videoID,
		Language:     track.Name,
		LanguageCode: track.LanguageCode,
		Generated:    track.Generated(),
		Segments:     segments,
	}, nil
}

// fetchTrackXML requests the srv1 XML variant, which is the only one that
// carries inline markup.
func (c *Client) fetchTrackXML(ctx context.Context, videoID string, track CaptionTrack) (*transcript.Transcript, error) {
	fetchURL, err := trackURL(track.BaseURL, nil)
	if err != nil {
		return nil, &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "fetch_track", VideoID: videoID, Err: err}
	}

	body, _, err := c.get(ctx, "fetch_track", videoID, fetchURL, timedtextClassifier("fetch_track", videoID))
	if err != nil {
		return nil, err
	}

	segments, err := parseSRV1(body)
	if err != nil {
		return nil, &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "fetch_track", VideoID: videoID, Err: err}
	}
	if len(segments) == 0 {
		return nil, &YTError{Sentinel: ErrNoTranscriptFound, Operation: "fetch_track", VideoID: videoID}
	}

	return &transcript.Transcript{
		VideoID:      videoID,
		Language:     track.Name,
		LanguageCode: track.LanguageCode,
		Generated:    track.Generated(),
		Segments:     segments,
	}, nil
}

// Translate derives a track that YouTube will serve machine-translated
// into target. The source track must be translatable and target must be
// among the offered translation languages.
func Translate(track CaptionTrack, target string, offered []TranslationLanguage) (CaptionTrack, error) {
	if !track.IsTranslatable {
		return CaptionTrack{}, &YTError{
			Sentinel:  ErrTranslationNotAvailable,
			Operation: "translate",
			Body:      fmt.Sprintf("track %q is not translatable", track.LanguageCode),
		}
	}

	var name string
	found := false
	for _, lang := range offered {
		if strings.EqualFold(lang.Code, target) {
			name, found = lang.Name, true
			target = lang.Code
			break
		}
	}
	if !found {
		return CaptionTrack{}, &YTError{
			Sentinel:  ErrTranslationNotAvailable,
			Operation: "translate",
			Body:      fmt.Sprintf("language %q is not offered for translation", target),
		}
	}

	translated, err := trackURL(track.BaseURL, map[string]string{"tlang": target})
	if err != nil {
		return CaptionTrack{}, &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "translate", Err: err}
	}

	return CaptionTrack{
		BaseURL:        translated,
		Name:           name,
		LanguageCode:   target,
		Kind:           track.Kind,
		IsTranslatable: false,
	}, nil
}

// trackURL re-encodes a caption base URL with extra query parameters.
func trackURL(baseURL string, params map[string]string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse track url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// timedtextClassifier maps timedtext statuses onto the error taxonomy.
// It runs inside the breaker window so a 403, which means the signed URL
// expired or the egress IP fell out of favor, counts as an upstream
// failure while a 404 stays a fact about the video.
func timedtextClassifier(op, videoID string) responseClassifier {
	return func(status int, body []byte) error {
		return classifyTimedtextStatus(op, videoID, status, body)
	}
}

func classifyTimedtextStatus(op, videoID string, status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return &YTError{Sentinel: ErrNoTranscriptFound, Operation: op, VideoID: videoID, Status: status}
	case status == http.StatusForbidden:
		return &YTError{Sentinel: ErrIPBlocked, Operation: op, VideoID: videoID, Status: status, Body: truncateBody(body)}
	default:
		return &YTError{Sentinel: ErrUpstreamBadResponse, Operation: op, VideoID: videoID, Status: status, Body: truncateBody(body)}
	}
}

// json3 wire shapes. Timing fields are JSON numbers in milliseconds.

type json3Response struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int64      `json:"tStartMs"`
	DurationMs int64      `json:"dDurationMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// parseJSON3 flattens json3 events into transcript segments. Events
// without text segments describe cue windows and are skipped, as are
// the bare newline separators emitted between speech-recognized cues.
func parseJSON3(body []byte) ([]transcript.Segment, error) {
	var resp json3Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode json3: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, seg := range ev.Segs {
			if seg.UTF8 == "\n" {
				continue
			}
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, transcript.Segment{
			Text:     text,
			Start:    float64(ev.StartMs) / 1000.0,
			Duration: float64(ev.DurationMs) / 1000.0,
		})
	}
	return segments, nil
}

// srv1 wire shapes.

type srv1Document struct {
	XMLName xml.Name   `xml:"transcript"`
	Texts   []srv1Text `xml:"text"`
}

type srv1Text struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Body     string  `xml:",innerxml"`
}

// formattingTagPattern matches inline markup worth keeping when callers
// ask for formatted text.
var (
	anyTagPattern        = regexp.MustCompile(`(?i)</?([a-zA-Z][a-zA-Z0-9]*)[^>]*>`)
	formattingTagAllowed = map[string]bool{
		"strong": true, "em": true, "b": true, "i": true, "mark": true,
		"small": true, "del": true, "ins": true, "sub": true, "sup": true,
	}
)

// parseSRV1 decodes the markup-carrying XML caption document. Formatting
// tags survive, everything else is stripped, entities are resolved.
// The raw inner XML carries two entity layers (the XML encoding on top of
// YouTube's own HTML escaping), hence the double unescape.
func parseSRV1(body []byte) ([]transcript.Segment, error) {
	var doc srv1Document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode srv1 xml: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := anyTagPattern.ReplaceAllStringFunc(t.Body, func(tag string) string {
			m := anyTagPattern.FindStringSubmatch(tag)
			if m != nil && formattingTagAllowed[strings.ToLower(m[1])] {
				return tag
			}
			return ""
		})
		text = strings.TrimSpace(html.UnescapeString(html.UnescapeString(text)))
		if text == "" {
			continue
		}
		segments = append(segments, transcript.Segment{
			Text:     text,
			Start:    t.Start,
			Duration: t.Duration,
		})
	}
	return segments, nil
}
