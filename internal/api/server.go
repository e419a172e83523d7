// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the vid-text service: the
// transcript fetch endpoint, stored transcript retrieval, fetch history,
// export downloads and the embedded web UI.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ExponentialDS/vid-text/internal/api/middleware"
	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/health"
	"github.com/ExponentialDS/vid-text/internal/jobs"
	"github.com/ExponentialDS/vid-text/internal/store"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

// Fetcher is the slice of the fetch pipeline the API server depends on.
// *jobs.Runner implements it; tests substitute stubs.
type Fetcher interface {
	Fetch(ctx context.Context, req jobs.FetchRequest) (*jobs.FetchResult, error)
	Tracks(ctx context.Context, videoID string) (*youtube.PlayerInfo, error)
	Metadata(ctx context.Context, videoID string) (*youtube.VideoMetadata, error)
	Status() jobs.Status
}

// Deps bundles the server's dependencies.
type Deps struct {
	Config  config.AppConfig
	Runner  Fetcher
	Archive *archive.Store
	Store   *store.Store
	Health  *health.Manager
	// BreakerState reports the upstream circuit breaker state for the
	// status endpoint; nil omits it.
	BreakerState func() string
}

// Server is the vid-text HTTP API server.
type Server struct {
	cfg       config.AppConfig
	runner    Fetcher
	archive   *archive.Store
	store     *store.Store
	health    *health.Manager
	breaker   func() string
	startTime time.Time
}

// New creates an API server from its dependencies.
func New(deps Deps) *Server {
	return &Server{
		cfg:       deps.Config,
		runner:    deps.Runner,
		archive:   deps.Archive,
		store:     deps.Store,
		health:    deps.Health,
		breaker:   deps.BreakerState,
		startTime: time.Now(),
	}
}

// Handler builds the routed handler with the full middleware stack
// applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins:    s.cfg.CORSOrigins,
		CSP:               middleware.DefaultCSP,
		EnableMetrics:     true,
		TracingService:    "vid-text-api",
		EnableLogging:     true,
		RateLimitRequests: s.cfg.RateLimit.Requests,
		RateLimitWindow:   s.cfg.RateLimit.Window,
	})

	s.registerPublicRoutes(r)
	s.registerAPIRoutes(r)

	return r
}

func (s *Server) registerPublicRoutes(r chi.Router) {
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	if s.cfg.MetricsListen == "" {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Handle("/files/*", http.StripPrefix("/files", s.exportFileServer()))

	r.Handle("/ui/*", http.StripPrefix("/ui", uiHandler()))
	r.Get("/ui", redirectTo("/ui/", http.StatusMovedPermanently))
	r.Get("/", redirectTo("/ui/", http.StatusTemporaryRedirect))
}

func (s *Server) registerAPIRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		// Mutating routes require the API token when one is configured.
		r.With(s.requireAuth).Post("/transcripts", s.handleFetch)
		r.With(s.requireAuth).Delete("/history/{id}", s.handleDeleteRecord)

		r.Get("/transcripts/{id}", s.handleGetTranscript)
		r.Get("/transcripts/{id}/report", s.handleGetReport)
		r.Get("/videos/{videoID}/tracks", s.handleListTracks)
		r.Get("/videos/{videoID}/metadata", s.handleMetadata)
		r.Get("/history", s.handleHistory)
		r.Get("/status", s.handleStatus)
	})
}

func redirectTo(path string, code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, code)
	}
}
