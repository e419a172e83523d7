// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/jobs"
	"github.com/ExponentialDS/vid-text/internal/report"
	"github.com/ExponentialDS/vid-text/internal/transcript"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

func successResult() *jobs.FetchResult {
	tr := sampleTranscript()
	return &jobs.FetchResult{
		Record: &archive.Record{
			ID:           "22222222-2222-2222-2222-222222222222",
			VideoID:      testVideoID,
			Title:        "Never Gonna Give You Up",
			LanguageCode: "en",
			Outcome:      archive.OutcomeOK,
			CreatedAt:    time.Now().UTC(),
		},
		Pick: transcript.PickInfo{
			Source:       transcript.SourceDirect,
			Language:     "English",
			LanguageCode: "en",
		},
		Transcript: tr,
		Report:     report.Build(tr),
		Exports:    map[string]string{"text": "exports/dQw4w9WgXcQ.en.txt"},
	}
}

func TestHandleFetch_Success(t *testing.T) {
	stub := &stubFetcher{result: successResult()}
	env := newTestEnv(t, stub, nil)

	w := doRequest(t, env.handler, http.MethodPost, "/api/v1/transcripts",
		`{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","formats":["text"]}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastReq.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("request URL not passed through, got %q", stub.lastReq.URL)
	}

	var result jobs.FetchResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if result.Record == nil || result.Record.VideoID != testVideoID {
		t.Errorf("expected record for %s, got %+v", testVideoID, result.Record)
	}
	if result.Exports["text"] == "" {
		t.Error("expected text export path in response")
	}
}

func TestHandleFetch_InvalidBody(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)

	w := doRequest(t, env.handler, http.MethodPost, "/api/v1/transcripts", `{not json`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if body["error"] != "invalid_json" {
		t.Errorf("expected invalid_json, got %q", body["error"])
	}
}

func TestHandleFetch_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid id", youtube.ErrInvalidVideoID, http.StatusUnprocessableEntity, "invalid_video_id"},
		{"no transcript", youtube.ErrNoTranscriptFound, http.StatusNotFound, "no_transcript"},
		{"video unavailable", youtube.ErrVideoUnavailable, http.StatusNotFound, "video_unavailable"},
		{"disabled", youtube.ErrTranscriptsDisabled, http.StatusForbidden, "transcripts_disabled"},
		{"age restricted", youtube.ErrAgeRestricted, http.StatusForbidden, "age_restricted"},
		{"region blocked", youtube.ErrRegionBlocked, http.StatusForbidden, "region_blocked"},
		{"translation unavailable", youtube.ErrTranslationNotAvailable, http.StatusUnprocessableEntity, "translation_unavailable"},
		{"ip blocked", youtube.ErrIPBlocked, http.StatusBadGateway, "ip_blocked"},
		{"upstream 5xx", youtube.ErrUpstreamError, http.StatusBadGateway, "upstream_error"},
		{"timeout", youtube.ErrTimeout, http.StatusGatewayTimeout, "upstream_timeout"},
		{"circuit open", youtube.ErrCircuitOpen, http.StatusServiceUnavailable, "circuit_open"},
		{"unmapped", errors.New("kaput"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, &stubFetcher{err: tc.err}, nil)

			w := doRequest(t, env.handler, http.MethodPost, "/api/v1/transcripts",
				`{"videoId":"dQw4w9WgXcQ"}`, nil)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to parse error body: %v", err)
			}
			if body["error"] != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, body["error"])
			}
		})
	}
}

func TestHandleFetch_RateLimitedForwardsRetryAfter(t *testing.T) {
	err := &youtube.YTError{
		Sentinel:   youtube.ErrRateLimited,
		Operation:  "timedtext",
		VideoID:    testVideoID,
		Status:     http.StatusTooManyRequests,
		RetryAfter: 7 * time.Second,
	}
	env := newTestEnv(t, &stubFetcher{err: err}, nil)

	w := doRequest(t, env.handler, http.MethodPost, "/api/v1/transcripts",
		`{"videoId":"dQw4w9WgXcQ"}`, nil)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "7" {
		t.Errorf("expected Retry-After 7, got %q", got)
	}
}

func TestHandleFetch_InternalErrorHidesDetail(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{err: errors.New("secret db path /var/lib")}, nil)

	w := doRequest(t, env.handler, http.MethodPost, "/api/v1/transcripts",
		`{"videoId":"dQw4w9WgXcQ"}`, nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "/var/lib") {
		t.Error("internal error detail leaked to the client")
	}
}

func TestHandleGetTranscript_Formats(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)
	rec := seedFetch(t, env)

	// Default format is JSON.
	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/"+rec.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	var tr transcript.Transcript
	if err := json.Unmarshal(w.Body.Bytes(), &tr); err != nil {
		t.Fatalf("failed to parse transcript JSON: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(tr.Segments))
	}

	// Plain text rendering.
	w = doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/"+rec.ID+"?format=text", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for text, got %d", w.Code)
	}
	want := "We're no strangers to love\nYou know the rules and so do I\n"
	if w.Body.String() != want {
		t.Errorf("unexpected text rendering:\n%q", w.Body.String())
	}

	// SRT rendering carries timestamps.
	w = doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/"+rec.ID+"?format=srt", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for srt, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "-->") {
		t.Error("expected SRT timing lines in output")
	}
}

func TestHandleGetTranscript_Download(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)
	rec := seedFetch(t, env)

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/"+rec.ID+"?format=text&download=1", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "dQw4w9WgXcQ.en.txt") {
		t.Errorf("unexpected content disposition %q", cd)
	}
}

func TestHandleGetTranscript_UnknownFormat(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)
	rec := seedFetch(t, env)

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/"+rec.ID+"?format=docx", "", nil)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_format") {
		t.Errorf("expected invalid_format code, got %s", w.Body.String())
	}
}

func TestHandleGetTranscript_UnknownID(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/nope", "", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleGetTranscript_FailedFetchRecord(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)
	rec := &archive.Record{
		ID:        "33333333-3333-3333-3333-333333333333",
		VideoID:   testVideoID,
		Outcome:   jobs.OutcomeRateLimited,
		Error:     "youtube: rate limited by upstream (HTTP 429)",
		CreatedAt: time.Now().UTC(),
	}
	if err := env.archive.Insert(context.Background(), rec); err != nil {
		t.Fatalf("failed to insert failed record: %v", err)
	}

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/"+rec.ID, "", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for failed fetch record, got %d", w.Code)
	}
}

func TestHandleGetReport(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)
	rec := seedFetch(t, env)

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/transcripts/"+rec.ID+"/report", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rep report.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if rep.VideoID != testVideoID {
		t.Errorf("expected report for %s, got %q", testVideoID, rep.VideoID)
	}
	if rep.Words == 0 {
		t.Error("expected non-zero word count in report")
	}
}

func TestHandleListTracks(t *testing.T) {
	stub := &stubFetcher{
		info: &youtube.PlayerInfo{
			Tracks: youtube.TrackList{
				VideoID: testVideoID,
				Tracks: []youtube.CaptionTrack{
					{BaseURL: "https://youtube.com/api/timedtext?signature=secret", Name: "English", LanguageCode: "en", IsTranslatable: true},
					{Name: "German (auto-generated)", LanguageCode: "de", Kind: "asr"},
				},
				TranslationLanguages: []youtube.TranslationLanguage{{Code: "fr", Name: "French"}},
			},
			Meta: youtube.VideoMetadata{ID: testVideoID, Title: "Never Gonna Give You Up"},
		},
	}
	env := newTestEnv(t, stub, nil)

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/videos/"+testVideoID+"/tracks", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "signature=secret") {
		t.Error("track listing must not expose upstream URLs")
	}

	var resp tracksResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse tracks response: %v", err)
	}
	if resp.VideoID != testVideoID {
		t.Errorf("expected video ID %s, got %q", testVideoID, resp.VideoID)
	}
	if len(resp.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(resp.Tracks))
	}
	if !resp.Tracks[1].Generated {
		t.Error("expected asr track to be marked generated")
	}
	if len(resp.TranslationLanguages) != 1 || resp.TranslationLanguages[0].Code != "fr" {
		t.Errorf("unexpected translation languages: %+v", resp.TranslationLanguages)
	}
}

func TestHandleMetadata(t *testing.T) {
	stub := &stubFetcher{
		meta: &youtube.VideoMetadata{
			ID:     testVideoID,
			Title:  "Never Gonna Give You Up",
			Author: "Rick Astley",
		},
	}
	env := newTestEnv(t, stub, nil)

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/videos/"+testVideoID+"/metadata", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var meta youtube.VideoMetadata
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("failed to parse metadata: %v", err)
	}
	if meta.Author != "Rick Astley" {
		t.Errorf("expected author, got %q", meta.Author)
	}
}

func TestHandleHistory(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := &archive.Record{
			ID:        fmt.Sprintf("record-%d", i),
			VideoID:   testVideoID,
			Outcome:   archive.OutcomeOK,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := env.archive.Insert(ctx, rec); err != nil {
			t.Fatalf("failed to insert record %d: %v", i, err)
		}
	}

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/history?limit=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp historyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse history: %v", err)
	}
	if len(resp.Records) != 2 {
		t.Errorf("expected 2 records with limit=2, got %d", len(resp.Records))
	}
	if resp.Total != 3 {
		t.Errorf("expected total 3, got %d", resp.Total)
	}

	w = doRequest(t, env.handler, http.MethodGet, "/api/v1/history?limit=banana", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric limit, got %d", w.Code)
	}

	w = doRequest(t, env.handler, http.MethodGet, "/api/v1/history?offset=-1", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative offset, got %d", w.Code)
	}
}

func TestHandleDeleteRecord(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)
	rec := seedFetch(t, env)

	w := doRequest(t, env.handler, http.MethodDelete, "/api/v1/history/"+rec.ID, "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	ctx := context.Background()
	if _, err := env.archive.GetByID(ctx, rec.ID); !errors.Is(err, archive.ErrNotFound) {
		t.Errorf("expected record gone, got %v", err)
	}
	if _, err := env.store.GetReport(ctx, rec.ID); err == nil {
		t.Error("expected report to be deleted with the record")
	}
	// The transcript blob stays; other records may reference it.
	if _, err := env.store.GetTranscript(ctx, testVideoID, "en"); err != nil {
		t.Errorf("transcript blob should survive record deletion: %v", err)
	}
}

func TestHandleDeleteRecord_Unknown(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)

	w := doRequest(t, env.handler, http.MethodDelete, "/api/v1/history/nope", "", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	stub := &stubFetcher{
		status: jobs.Status{
			LastRun:  time.Now().UTC(),
			VideoID:  testVideoID,
			Segments: 2,
		},
	}
	env := newTestEnv(t, stub, nil)
	seedFetch(t, env)

	w := doRequest(t, env.handler, http.MethodGet, "/api/v1/status", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse status: %v", err)
	}
	if resp.Version != "test" {
		t.Errorf("expected version test, got %q", resp.Version)
	}
	if resp.Breaker != "closed" {
		t.Errorf("expected breaker closed, got %q", resp.Breaker)
	}
	if resp.LastFetch.VideoID != testVideoID {
		t.Errorf("expected last fetch video, got %q", resp.LastFetch.VideoID)
	}
	if resp.HistoryTotal != 1 {
		t.Errorf("expected history total 1, got %d", resp.HistoryTotal)
	}
	if resp.StoredTranscripts != 1 {
		t.Errorf("expected 1 stored transcript, got %d", resp.StoredTranscripts)
	}
	if resp.Outcomes["ok"] != 1 {
		t.Errorf("expected outcome count ok=1, got %+v", resp.Outcomes)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)

	w := doRequest(t, env.handler, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", w.Code)
	}

	w = doRequest(t, env.handler, http.MethodGet, "/readyz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /readyz with no checkers, got %d", w.Code)
	}
}

func TestMetricsOnMainListener(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, nil)

	w := doRequest(t, env.handler, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "vidtext_") {
		t.Error("expected vidtext metrics in exposition")
	}
}

func TestMetricsOnSeparateListener(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, func(cfg *config.AppConfig) {
		cfg.MetricsListen = ":9090"
	})

	w := doRequest(t, env.handler, http.MethodGet, "/metrics", "", nil)
	if w.Code == http.StatusOK {
		t.Error("expected /metrics to be absent from main listener when MetricsListen is set")
	}
}
