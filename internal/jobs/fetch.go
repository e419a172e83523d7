// SPDX-License-Identifier: MIT

// Package jobs runs the transcript fetch pipeline: resolve the video,
// discover its caption tracks, pick one, download it, derive the report
// and persist everything for later retrieval.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/cache"
	"github.com/ExponentialDS/vid-text/internal/format"
	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/metrics"
	"github.com/ExponentialDS/vid-text/internal/report"
	"github.com/ExponentialDS/vid-text/internal/store"
	"github.com/ExponentialDS/vid-text/internal/telemetry"
	"github.com/ExponentialDS/vid-text/internal/transcript"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

// Pipeline stages, used for metrics and logs.
const (
	stageResolve    = "resolve"
	stageTracks     = "tracks"
	stageSelect     = "select"
	stageTranscript = "transcript"
	stagePersist    = "persist"
	stageExport     = "export"
)

// Cache tiers, used for hit/miss metrics.
const (
	tierTracks     = "tracks"
	tierMetadata   = "metadata"
	tierTranscript = "transcript"
)

const (
	cacheKeyTracks = "tracks:"
	cacheKeyMeta   = "meta:"
)

// UpstreamClient is the slice of the YouTube client the pipeline needs.
// Separated as an interface for easier testing.
type UpstreamClient interface {
	Lookup(ctx context.Context, videoID string) (*youtube.PlayerInfo, error)
	FetchTrack(ctx context.Context, videoID string, track youtube.CaptionTrack, opts youtube.FetchOptions) (*transcript.Transcript, error)
	Metadata(ctx context.Context, videoID string) (*youtube.VideoMetadata, error)
	Ping(ctx context.Context) error
}

// Runner owns the fetch pipeline and its backing stores. All methods are
// safe for concurrent use.
type Runner struct {
	client  UpstreamClient
	cache   cache.Cache
	store   *store.Store
	archive *archive.Store
	cfg     Config

	// group coalesces concurrent identical fetches into one upstream call.
	group singleflight.Group

	mu     sync.RWMutex
	status Status
}

// NewRunner wires the pipeline. The cache may be a no-op implementation,
// store and archive must be open.
func NewRunner(client UpstreamClient, c cache.Cache, st *store.Store, arch *archive.Store, cfg Config) *Runner {
	if len(cfg.DefaultFormats) == 0 {
		cfg.DefaultFormats = []string{"text"}
	}
	return &Runner{
		client:  client,
		cache:   c,
		store:   st,
		archive: arch,
		cfg:     cfg,
	}
}

// ApplyConfig swaps the pipeline defaults. Fetches already in flight keep
// the config they started with.
func (r *Runner) ApplyConfig(cfg Config) {
	if len(cfg.DefaultFormats) == 0 {
		cfg.DefaultFormats = []string{"text"}
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// config returns a point-in-time copy of the pipeline config.
func (r *Runner) config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Fetch runs the full pipeline for req. Concurrent requests for the same
// video with the same options share a single upstream fetch.
func (r *Runner) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	input := strings.TrimSpace(req.URL)
	if input == "" {
		input = strings.TrimSpace(req.VideoID)
	}

	videoID, err := youtube.ExtractVideoID(input)
	if err != nil {
		return nil, r.reject(ctx, stageResolve, err)
	}

	req = r.withDefaults(req)
	for _, name := range req.Formats {
		if _, err := format.Get(name); err != nil {
			return nil, r.reject(ctx, stageResolve, err)
		}
	}

	v, err, _ := r.group.Do(fetchKey(videoID, req), func() (any, error) {
		return r.run(ctx, videoID, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*FetchResult), nil
}

// run is the pipeline body, executed once per coalesced fetch. The fetch
// ID doubles as the archive record ID, success or failure.
func (r *Runner) run(ctx context.Context, videoID string, req FetchRequest) (*FetchResult, error) {
	start := time.Now()
	fetchID := uuid.NewString()
	ctx = vtlog.ContextWithFetchID(ctx, fetchID)
	logger := vtlog.WithContext(ctx, vtlog.WithComponent("jobs"))

	ctx, span := telemetry.Tracer("jobs").Start(ctx, "jobs.fetch")
	defer span.End()
	span.SetAttributes(telemetry.VideoAttributes(videoID, "", "")...)

	logger.Info().
		Str(vtlog.FieldEvent, "fetch.start").
		Str(vtlog.FieldVideoID, videoID).
		Strs("languages", req.Languages).
		Bool("skip_cache", req.SkipCache).
		Msg("starting fetch")

	info, err := r.trackList(ctx, videoID, req.SkipCache)
	if err != nil {
		return nil, r.fail(ctx, span, videoID, stageTracks, start, err)
	}
	metrics.RecordTracksDiscovered(len(info.Tracks.Tracks))

	sel, err := youtube.Select(info.Tracks, req.Languages, req.TranslateTo)
	if err != nil {
		return nil, r.fail(ctx, span, videoID, stageSelect, start, err)
	}
	span.SetAttributes(telemetry.VideoAttributes("", sel.Track.LanguageCode, sel.Track.Kind)...)

	tr, cached, stage, err := r.materialize(ctx, videoID, sel.Track, req)
	if err != nil {
		return nil, r.fail(ctx, span, videoID, stage, start, err)
	}
	metrics.ObserveTranscriptSegments(len(tr.Segments))
	span.SetAttributes(telemetry.FetchAttributes("", sel.Info.Source, cached)...)

	repStart := time.Now()
	rep := report.Build(tr)
	metrics.ObserveReportBuild(time.Since(repStart))

	rec := &archive.Record{
		ID:           fetchID,
		VideoID:      videoID,
		Title:        info.Meta.Title,
		Language:     tr.Language,
		LanguageCode: tr.LanguageCode,
		Source:       sel.Info.Source,
		Generated:    tr.Generated,
		Segments:     len(tr.Segments),
		Words:        tr.WordCount(),
		Formats:      req.Formats,
		Outcome:      archive.OutcomeOK,
	}
	if err := r.archive.Insert(ctx, rec); err != nil {
		return nil, r.fail(ctx, span, videoID, stagePersist, start, err)
	}
	if err := r.store.PutReport(ctx, rec.ID, rep, r.config().StoreTTL); err != nil {
		return nil, r.fail(ctx, span, videoID, stagePersist, start, err)
	}

	exports, err := r.writeExports(ctx, tr, req.Formats)
	if err != nil {
		return nil, r.fail(ctx, span, videoID, stageExport, start, err)
	}

	metrics.IncFetch(OutcomeOK)
	metrics.ObserveFetchDuration(time.Since(start))
	metrics.RecordFetchSuccess(time.Now())
	if n, err := r.store.CountTranscripts(ctx); err == nil {
		metrics.SetStoredTranscripts(n)
	}

	r.setStatus(Status{LastRun: time.Now().UTC(), VideoID: videoID, Segments: len(tr.Segments)})

	logger.Info().
		Str(vtlog.FieldEvent, "fetch.success").
		Str(vtlog.FieldVideoID, videoID).
		Str(vtlog.FieldRecordID, rec.ID).
		Str(vtlog.FieldLanguageCode, tr.LanguageCode).
		Str("source", sel.Info.Source).
		Bool("cached", cached).
		Int(vtlog.FieldSegments, len(tr.Segments)).
		Int(vtlog.FieldWords, rec.Words).
		Dur("duration", time.Since(start)).
		Msg("fetch completed")

	return &FetchResult{
		Record:     rec,
		Pick:       sel.Info,
		Transcript: tr,
		Report:     rep,
		Exports:    exports,
		Cached:     cached,
	}, nil
}

// materialize returns the transcript for track, from the durable store
// when possible, from upstream otherwise. The bool reports a store hit,
// the string names the failed stage when err is non-nil.
func (r *Runner) materialize(ctx context.Context, videoID string, track youtube.CaptionTrack, req FetchRequest) (*transcript.Transcript, bool, string, error) {
	logger := vtlog.WithComponentFromContext(ctx, "jobs")

	if !req.SkipCache {
		hit, err := r.store.GetTranscript(ctx, videoID, track.LanguageCode)
		switch {
		case err == nil:
			metrics.IncCacheHit(tierTranscript)
			return hit, true, "", nil
		case errors.Is(err, store.ErrNotFound):
			metrics.IncCacheMiss(tierTranscript)
		default:
			logger.Warn().Err(err).
				Str(vtlog.FieldEvent, "store.read_failed").
				Str(vtlog.FieldVideoID, videoID).
				Msg("transcript store read failed, fetching upstream")
		}
	}

	tr, err := r.client.FetchTrack(ctx, videoID, track, youtube.FetchOptions{
		PreserveFormatting: req.PreserveFormatting,
	})
	if err != nil {
		return nil, false, stageTranscript, err
	}

	if err := r.store.PutTranscript(ctx, tr, r.config().StoreTTL); err != nil {
		return nil, false, stagePersist, err
	}
	return tr, false, "", nil
}

// trackList returns the caption inventory for videoID, memoized in the
// cache. A fresh lookup also refreshes the cached metadata.
func (r *Runner) trackList(ctx context.Context, videoID string, skipCache bool) (*youtube.PlayerInfo, error) {
	key := cacheKeyTracks + videoID
	if !skipCache {
		if raw, ok := r.cache.Get(key); ok {
			var info youtube.PlayerInfo
			if err := json.Unmarshal(raw, &info); err == nil {
				metrics.IncCacheHit(tierTracks)
				return &info, nil
			}
			r.cache.Delete(key)
		}
		metrics.IncCacheMiss(tierTracks)
	}

	info, err := r.client.Lookup(ctx, videoID)
	if err != nil {
		return nil, err
	}

	// Consent walls strip the microformat block from the watch page.
	// Backfill from oEmbed so reports still carry a title.
	if info.Meta.Title == "" {
		if oe, err := r.client.Metadata(ctx, videoID); err == nil {
			info.Meta.Merge(*oe)
		}
	}

	ttl := r.config().CacheTTL
	if raw, err := json.Marshal(info); err == nil {
		r.cache.Set(key, raw, ttl)
	}
	if raw, err := json.Marshal(info.Meta); err == nil {
		r.cache.Set(cacheKeyMeta+videoID, raw, ttl)
	}
	return info, nil
}

// Tracks lists the caption tracks available for a video, along with the
// metadata the same lookup produced.
func (r *Runner) Tracks(ctx context.Context, input string) (*youtube.PlayerInfo, error) {
	videoID, err := youtube.ExtractVideoID(input)
	if err != nil {
		return nil, err
	}
	return r.trackList(ctx, videoID, false)
}

// Metadata resolves video metadata, memoized in the cache. A prior fetch
// of the same video answers from the richer watch page data.
func (r *Runner) Metadata(ctx context.Context, input string) (*youtube.VideoMetadata, error) {
	videoID, err := youtube.ExtractVideoID(input)
	if err != nil {
		return nil, err
	}

	key := cacheKeyMeta + videoID
	if raw, ok := r.cache.Get(key); ok {
		var meta youtube.VideoMetadata
		if err := json.Unmarshal(raw, &meta); err == nil {
			metrics.IncCacheHit(tierMetadata)
			return &meta, nil
		}
		r.cache.Delete(key)
	}
	metrics.IncCacheMiss(tierMetadata)

	meta, err := r.client.Metadata(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(meta); err == nil {
		r.cache.Set(key, raw, r.config().CacheTTL)
	}
	return meta, nil
}

// Status returns the most recent pipeline outcome.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// LastFetch reports when the pipeline last ran and the error message of
// that run, empty on success. Feeds the readiness check.
func (r *Runner) LastFetch() (time.Time, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status.LastRun, r.status.Error
}

func (r *Runner) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// withDefaults fills unset request fields from the runner config.
func (r *Runner) withDefaults(req FetchRequest) FetchRequest {
	cfg := r.config()
	if len(req.Languages) == 0 {
		req.Languages = cfg.Languages
	}
	if req.TranslateTo == "" {
		req.TranslateTo = cfg.TranslateTo
	}
	if len(req.Formats) == 0 {
		req.Formats = cfg.DefaultFormats
	}
	req.PreserveFormatting = req.PreserveFormatting || cfg.PreserveFormatting
	return req
}

// reject handles request validation failures: counted and logged but
// never archived, and the runner status stays untouched so bad requests
// cannot degrade readiness.
func (r *Runner) reject(ctx context.Context, stage string, err error) error {
	outcome := OutcomeFromError(err)
	metrics.IncFetchStageFailure(stage)
	metrics.IncFetch(outcome)

	vtlog.WithComponentFromContext(ctx, "jobs").Warn().
		Err(err).
		Str(vtlog.FieldEvent, "fetch.rejected").
		Str(vtlog.FieldStage, stage).
		Str("outcome", outcome).
		Msg("fetch request rejected")

	return err
}

// fail records a pipeline failure in metrics, the span, the archive and
// the runner status, then returns err unchanged.
func (r *Runner) fail(ctx context.Context, span trace.Span, videoID, stage string, start time.Time, err error) error {
	outcome := OutcomeFromError(err)
	metrics.IncFetchStageFailure(stage)
	metrics.IncFetch(outcome)
	metrics.ObserveFetchDuration(time.Since(start))

	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	span.SetAttributes(telemetry.ErrorAttributes(err, outcome)...)
	span.SetAttributes(telemetry.FetchAttributes(stage, "", false)...)

	logger := vtlog.WithComponentFromContext(ctx, "jobs")
	logger.Error().
		Err(err).
		Str(vtlog.FieldEvent, "fetch.failed").
		Str(vtlog.FieldVideoID, videoID).
		Str(vtlog.FieldStage, stage).
		Str("outcome", outcome).
		Msg("fetch failed")

	recID := vtlog.FetchIDFromContext(ctx)
	if recID == "" {
		recID = uuid.NewString()
	}
	rec := &archive.Record{
		ID:      recID,
		VideoID: videoID,
		Outcome: outcome,
		Error:   err.Error(),
	}
	// The attempt is archived even when the request context is gone.
	if aerr := r.archive.Insert(context.WithoutCancel(ctx), rec); aerr != nil {
		logger.Warn().Err(aerr).
			Str(vtlog.FieldEvent, "archive.insert_failed").
			Str(vtlog.FieldVideoID, videoID).
			Msg("could not archive failed fetch")
	}

	r.setStatus(Status{LastRun: time.Now().UTC(), VideoID: videoID, Error: err.Error()})
	return err
}

// fetchKey builds the singleflight key for a normalized request.
func fetchKey(videoID string, req FetchRequest) string {
	langs := strings.Join(req.Languages, ",")
	formats := append([]string(nil), req.Formats...)
	sort.Strings(formats)
	return fmt.Sprintf("%s|%s|%s|%t|%s|%t",
		videoID, langs, req.TranslateTo, req.PreserveFormatting,
		strings.Join(formats, ","), req.SkipCache)
}
