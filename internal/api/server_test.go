// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/health"
	"github.com/ExponentialDS/vid-text/internal/jobs"
	"github.com/ExponentialDS/vid-text/internal/report"
	"github.com/ExponentialDS/vid-text/internal/store"
	"github.com/ExponentialDS/vid-text/internal/transcript"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

const testVideoID = "dQw4w9WgXcQ"

// stubFetcher satisfies Fetcher with canned responses.
type stubFetcher struct {
	result  *jobs.FetchResult
	err     error
	info    *youtube.PlayerInfo
	meta    *youtube.VideoMetadata
	status  jobs.Status
	lastReq jobs.FetchRequest
}

func (f *stubFetcher) Fetch(ctx context.Context, req jobs.FetchRequest) (*jobs.FetchResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *stubFetcher) Tracks(ctx context.Context, videoID string) (*youtube.PlayerInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func (f *stubFetcher) Metadata(ctx context.Context, videoID string) (*youtube.VideoMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}

func (f *stubFetcher) Status() jobs.Status { return f.status }

// testEnv bundles a server over real temp-backed stores.
type testEnv struct {
	server  *Server
	handler http.Handler
	archive *archive.Store
	store   *store.Store
	cfg     config.AppConfig
}

func newTestEnv(t *testing.T, stub Fetcher, mutate func(*config.AppConfig)) *testEnv {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	arc, err := archive.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() { _ = arc.Close() })

	cfg := config.AppConfig{
		DataDir: dir,
		Version: "test",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	srv := New(Deps{
		Config:       cfg,
		Runner:       stub,
		Archive:      arc,
		Store:        st,
		Health:       health.NewManager(cfg.Version),
		BreakerState: func() string { return "closed" },
	})

	return &testEnv{
		server:  srv,
		handler: srv.Handler(),
		archive: arc,
		store:   st,
		cfg:     cfg,
	}
}

func sampleTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		VideoID:      testVideoID,
		Language:     "English",
		LanguageCode: "en",
		Segments: []transcript.Segment{
			{Text: "We're no strangers to love", Start: 0.21, Duration: 3.5},
			{Text: "You know the rules and so do I", Start: 3.71, Duration: 4.0},
		},
	}
}

// seedFetch stores a finished fetch: archive record, transcript blob and
// report, the way the pipeline leaves them behind.
func seedFetch(t *testing.T, env *testEnv) *archive.Record {
	t.Helper()
	ctx := context.Background()

	tr := sampleTranscript()
	if err := env.store.PutTranscript(ctx, tr, 0); err != nil {
		t.Fatalf("failed to seed transcript: %v", err)
	}

	rec := &archive.Record{
		ID:           "11111111-1111-1111-1111-111111111111",
		VideoID:      testVideoID,
		Title:        "Never Gonna Give You Up",
		Language:     "English",
		LanguageCode: "en",
		Source:       transcript.SourceDirect,
		Segments:     len(tr.Segments),
		Words:        tr.WordCount(),
		Formats:      []string{"text"},
		Outcome:      archive.OutcomeOK,
		CreatedAt:    time.Now().UTC(),
	}
	if err := env.archive.Insert(ctx, rec); err != nil {
		t.Fatalf("failed to seed archive record: %v", err)
	}

	if err := env.store.PutReport(ctx, rec.ID, report.Build(tr), 0); err != nil {
		t.Fatalf("failed to seed report: %v", err)
	}

	return rec
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}
