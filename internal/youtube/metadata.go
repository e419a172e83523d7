// SPDX-License-Identifier: MIT

package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// VideoMetadata describes a video independent of its captions. The watch
// page microformat fills most fields, the oEmbed endpoint covers videos
// whose watch page cannot be parsed.
type VideoMetadata struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	ChannelURL    string `json:"channelUrl,omitempty"`
	ThumbnailURL  string `json:"thumbnailUrl,omitempty"`
	Category      string `json:"category,omitempty"`
	PublishDate   string `json:"publishDate,omitempty"`
	LengthSeconds int64  `json:"lengthSeconds,omitempty"`
	Views         int64  `json:"views,omitempty"`
}

// Merge fills empty fields of m from other without overwriting anything
// already known.
func (m *VideoMetadata) Merge(other VideoMetadata) {
	if m.Title == "" {
		m.Title = other.Title
	}
	if m.Author == "" {
		m.Author = other.Author
	}
	if m.ChannelURL == "" {
		m.ChannelURL = other.ChannelURL
	}
	if m.ThumbnailURL == "" {
		m.ThumbnailURL = other.ThumbnailURL
	}
	if m.Category == "" {
		m.Category = other.Category
	}
	if m.PublishDate == "" {
		m.PublishDate = other.PublishDate
	}
	if m.LengthSeconds == 0 {
		m.LengthSeconds = other.LengthSeconds
	}
	if m.Views == 0 {
		m.Views = other.Views
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Metadata resolves basic video metadata through the oEmbed endpoint.
// It is cheaper than a watch page fetch and works for videos whose
// transcripts are disabled.
func (c *Client) Metadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	if err := validateVideoID(videoID); err != nil {
		return nil, err
	}

	watchURL := defaultBaseURL + "/watch?v=" + videoID
	oembedURL := c.oembedBase + "/oembed?url=" + url.QueryEscape(watchURL) + "&format=json"

	body, status, err := c.get(ctx, "metadata", videoID, oembedURL, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &YTError{Sentinel: ErrVideoUnavailable, Operation: "metadata", VideoID: videoID, Status: status}
	default:
		// 401/403 means embedding is disabled for the video, which
		// says nothing about transcript availability.
		return nil, &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "metadata", VideoID: videoID, Status: status, Body: truncateBody(body)}
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "metadata", VideoID: videoID, Err: err}
	}

	return &VideoMetadata{
		ID:           videoID,
		Title:        resp.Title,
		Author:       resp.AuthorName,
		ChannelURL:   resp.AuthorURL,
		ThumbnailURL: resp.ThumbnailURL,
	}, nil
}
