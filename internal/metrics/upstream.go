// SPDX-License-Identifier: MIT

// Package metrics holds the service's Prometheus collectors. Everything is
// registered via promauto at init time and exposed through the default
// registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtext_upstream_requests_total",
		Help: "Outbound YouTube requests by operation and HTTP status",
	}, []string{"op", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidtext_upstream_request_duration_seconds",
		Help:    "Outbound YouTube request latencies",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtext_cache_requests_total",
		Help: "Cache lookups by tier and result",
	}, []string{"tier", "result"}) // tier=memory|redis|store, result=hit|miss
)

// ObserveUpstreamRequest records one outbound request. Transport failures
// pass status 0.
func ObserveUpstreamRequest(op string, status int, d time.Duration) {
	upstreamRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	upstreamDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncCacheHit records a cache hit for the given tier.
func IncCacheHit(tier string) {
	cacheOps.WithLabelValues(tier, "hit").Inc()
}

// IncCacheMiss records a cache miss for the given tier.
func IncCacheMiss(tier string) {
	cacheOps.WithLabelValues(tier, "miss").Inc()
}
