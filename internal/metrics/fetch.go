// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtext_fetches_total",
		Help: "Transcript fetch attempts by outcome class",
	}, []string{"outcome"}) // outcome=ok|invalid_id|unavailable|disabled|not_found|age_restricted|region_blocked|ip_blocked|rate_limited|upstream|timeout|circuit_open|internal

	fetchStageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtext_fetch_stage_failures_total",
		Help: "Fetch pipeline failures by stage",
	}, []string{"stage"}) // stage=resolve|tracks|select|transcript|report|persist|export

	fetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidtext_fetch_duration_seconds",
		Help:    "End-to-end duration of the fetch pipeline",
		Buckets: prometheus.DefBuckets,
	})

	fetchLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidtext_fetch_last_success_timestamp_seconds",
		Help: "Unix time of the last successful fetch",
	})

	tracksDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidtext_tracks_discovered",
		Help: "Caption tracks discovered for the most recent lookup",
	})

	transcriptSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidtext_transcript_segments",
		Help:    "Segments per fetched transcript",
		Buckets: prometheus.ExponentialBuckets(8, 2, 10),
	})

	reportBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidtext_report_build_duration_seconds",
		Help:    "Time spent building quick reports",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})

	exportBytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtext_export_bytes_written_total",
		Help: "Bytes written to export files by format",
	}, []string{"format"})

	storedTranscripts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidtext_stored_transcripts",
		Help: "Transcripts currently held in the durable store",
	})
)

// IncFetch records a completed fetch attempt with its outcome class.
func IncFetch(outcome string) {
	if outcome == "" {
		outcome = "internal"
	}
	fetchesTotal.WithLabelValues(outcome).Inc()
}

// IncFetchStageFailure attributes a pipeline failure to a stage.
func IncFetchStageFailure(stage string) {
	fetchStageFailures.WithLabelValues(stage).Inc()
}

// ObserveFetchDuration records the wall-clock duration of one pipeline run.
func ObserveFetchDuration(d time.Duration) {
	fetchDurationSeconds.Observe(d.Seconds())
}

// RecordFetchSuccess stamps the last-success gauge.
func RecordFetchSuccess(t time.Time) {
	fetchLastSuccess.Set(float64(t.Unix()))
}

// RecordTracksDiscovered records how many caption tracks the last lookup found.
func RecordTracksDiscovered(n int) {
	tracksDiscovered.Set(float64(n))
}

// ObserveTranscriptSegments records the segment count of a fetched transcript.
func ObserveTranscriptSegments(n int) {
	transcriptSegments.Observe(float64(n))
}

// ObserveReportBuild records the time one report build took.
func ObserveReportBuild(d time.Duration) {
	reportBuildSeconds.Observe(d.Seconds())
}

// AddExportBytes counts bytes written to an export file.
func AddExportBytes(format string, n int) {
	if n > 0 {
		exportBytesWritten.WithLabelValues(format).Add(float64(n))
	}
}

// SetStoredTranscripts publishes the durable store's transcript count.
func SetStoredTranscripts(n int) {
	storedTranscripts.Set(float64(n))
}
