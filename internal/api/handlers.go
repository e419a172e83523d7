// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/format"
	"github.com/ExponentialDS/vid-text/internal/jobs"
	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

// maxFetchBodyBytes bounds the fetch request body. Requests are a URL
// plus a few options; anything near the limit is garbage.
const maxFetchBodyBytes = 1 << 20

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// handleFetch runs the transcript pipeline for one video.
// POST /api/v1/transcripts
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFetchBodyBytes)

	var req jobs.FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "invalid_json", "Request body must be a JSON fetch request.")
		return
	}

	result, err := s.runner.Fetch(r.Context(), req)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleGetTranscript serves a stored transcript rendered in the
// requested format.
// GET /api/v1/transcripts/{id}?format=json&download=1
func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.archive.GetByID(r.Context(), id)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}
	if rec.Outcome != archive.OutcomeOK {
		RespondError(w, r, http.StatusNotFound, "not_found", "This history entry is a failed fetch with no transcript.")
		return
	}

	tr, err := s.store.GetTranscript(r.Context(), rec.VideoID, rec.LanguageCode)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = "json"
	}
	f, err := format.Get(name)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	data, err := f.Format(tr)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	if r.URL.Query().Get("download") == "1" {
		filename := fmt.Sprintf("%s.%s.%s", rec.VideoID, rec.LanguageCode, f.Ext())
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	if _, err := w.Write(data); err != nil {
		vtlog.WithComponentFromContext(r.Context(), "api").Error().
			Err(err).
			Str(vtlog.FieldRecordID, id).
			Msg("failed to write transcript response")
	}
}

// handleGetReport serves the stored analysis report for a fetch.
// GET /api/v1/transcripts/{id}/report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rep, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, rep)
}

// trackView is a caption track as shown to clients, without the signed
// upstream URL.
type trackView struct {
	Name           string `json:"name"`
	LanguageCode   string `json:"languageCode"`
	Generated      bool   `json:"generated"`
	IsTranslatable bool   `json:"isTranslatable"`
}

type tracksResponse struct {
	VideoID              string                        `json:"videoId"`
	Title                string                        `json:"title,omitempty"`
	Tracks               []trackView                   `json:"tracks"`
	TranslationLanguages []youtube.TranslationLanguage `json:"translationLanguages,omitempty"`
}

// handleListTracks lists the caption tracks a video offers.
// GET /api/v1/videos/{videoID}/tracks
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	info, err := s.runner.Tracks(r.Context(), videoID)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	resp := tracksResponse{
		VideoID:              info.Tracks.VideoID,
		Title:                info.Meta.Title,
		Tracks:               make([]trackView, 0, len(info.Tracks.Tracks)),
		TranslationLanguages: info.Tracks.TranslationLanguages,
	}
	for _, t := range info.Tracks.Tracks {
		resp.Tracks = append(resp.Tracks, trackView{
			Name:           t.Name,
			LanguageCode:   t.LanguageCode,
			Generated:      t.Generated(),
			IsTranslatable: t.IsTranslatable,
		})
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// handleMetadata serves video metadata without touching captions.
// GET /api/v1/videos/{videoID}/metadata
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	meta, err := s.runner.Metadata(r.Context(), videoID)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, meta)
}

type historyResponse struct {
	Records []*archive.Record `json:"records"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// handleHistory lists fetch records, newest first.
// GET /api/v1/history?limit=50&offset=0
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil || limit < 1 {
		RespondError(w, r, http.StatusBadRequest, "invalid_query", "limit must be a positive integer")
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		RespondError(w, r, http.StatusBadRequest, "invalid_query", "offset must be a non-negative integer")
		return
	}

	records, err := s.archive.List(r.Context(), limit, offset)
	if err != nil {
		respondFetchError(w, r, err)
		return
	}
	if records == nil {
		records = []*archive.Record{}
	}
	total, err := s.archive.Count(r.Context())
	if err != nil {
		respondFetchError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, historyResponse{
		Records: records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// handleDeleteRecord removes one history entry and its report. The
// transcript blob stays; other records for the same video and language
// may still reference it.
// DELETE /api/v1/history/{id}
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.archive.Delete(r.Context(), id); err != nil {
		respondFetchError(w, r, err)
		return
	}

	if err := s.store.DeleteReport(r.Context(), id); err != nil {
		vtlog.WithComponentFromContext(r.Context(), "api").Warn().
			Err(err).
			Str(vtlog.FieldRecordID, id).
			Msg("failed to delete report for removed history entry")
	}

	vtlog.WithComponentFromContext(r.Context(), "api").Info().
		Str(vtlog.FieldEvent, "history.deleted").
		Str(vtlog.FieldRecordID, id).
		Msg("history entry deleted")

	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Version           string         `json:"version"`
	UptimeSeconds     int64          `json:"uptime_seconds"`
	LastFetch         jobs.Status    `json:"last_fetch"`
	Breaker           string         `json:"breaker,omitempty"`
	Outcomes          map[string]int `json:"outcomes,omitempty"`
	StoredTranscripts int            `json:"stored_transcripts"`
	HistoryTotal      int            `json:"history_total"`
}

// handleStatus reports service state for operators and the web UI.
// GET /api/v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Version:       s.cfg.Version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		LastFetch:     s.runner.Status(),
	}
	if s.breaker != nil {
		resp.Breaker = s.breaker()
	}

	logger := vtlog.WithComponentFromContext(r.Context(), "api")
	if outcomes, err := s.archive.CountByOutcome(r.Context()); err == nil {
		resp.Outcomes = outcomes
	} else {
		logger.Warn().Err(err).Msg("failed to count outcomes for status")
	}
	if stored, err := s.store.CountTranscripts(r.Context()); err == nil {
		resp.StoredTranscripts = stored
	} else {
		logger.Warn().Err(err).Msg("failed to count stored transcripts for status")
	}
	if total, err := s.archive.Count(r.Context()); err == nil {
		resp.HistoryTotal = total
	} else {
		logger.Warn().Err(err).Msg("failed to count history for status")
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	return n, nil
}
