// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ExponentialDS/vid-text/internal/api"
	"github.com/ExponentialDS/vid-text/internal/archive"
	"github.com/ExponentialDS/vid-text/internal/cache"
	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/daemon"
	"github.com/ExponentialDS/vid-text/internal/health"
	"github.com/ExponentialDS/vid-text/internal/jobs"
	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/store"
	"github.com/ExponentialDS/vid-text/internal/telemetry"
	"github.com/ExponentialDS/vid-text/internal/validation"
	"github.com/ExponentialDS/vid-text/internal/version"
	"github.com/ExponentialDS/vid-text/internal/youtube"
)

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "fetch":
			os.Exit(runFetchCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		case "storage":
			os.Exit(runStorageCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	vtlog.Configure(vtlog.Config{
		Level:   "info",
		Service: "vid-text",
		Version: version.Version,
	})

	logger := vtlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Determine config path:
	// - Explicit via --config
	// - Otherwise auto-load ${VIDTEXT_DATA_DIR}/config.yaml if it exists
	explicitConfigPath := strings.TrimSpace(*configPath)
	effectiveConfigPath := explicitConfigPath
	if effectiveConfigPath == "" {
		effectiveConfigPath = resolveDefaultConfigPath()
	}

	// Load configuration with precedence: ENV > File > Defaults
	loader := config.NewLoader(effectiveConfigPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	// Re-configure logger with loaded configuration
	vtlog.Configure(vtlog.Config{
		Level:   cfg.LogLevel,
		Service: "vid-text",
		Version: cfg.Version,
	})

	switch {
	case explicitConfigPath != "":
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", explicitConfigPath).
			Msg("loaded configuration from file")
	case effectiveConfigPath != "":
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file(auto)").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	default:
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	// Upstream client first, so startup checks can probe reachability.
	client := youtube.New(youtube.Options{
		Timeout:          cfg.YouTube.Timeout,
		UserAgent:        cfg.YouTube.UserAgent,
		Proxy:            upstreamProxy(cfg.Proxy),
		RateRPS:          cfg.YouTube.RateRPS,
		RateBurst:        cfg.YouTube.RateBurst,
		BreakerThreshold: cfg.YouTube.BreakerThreshold,
		BreakerReset:     cfg.YouTube.BreakerReset,
	})

	// -------------------------------------------------------------------------
	// Pre-flight Checks (Fail Fast)
	// -------------------------------------------------------------------------
	if err := validation.PerformStartupChecks(ctx, cfg, client); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and permissions.")
	}
	// -------------------------------------------------------------------------

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Listen).
		Msg("starting vid-text")

	// Log key configuration
	logger.Info().Msgf("→ Languages: %s (translate fallback: %s)", strings.Join(cfg.Languages, ", "), cfg.TranslateTo)
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
	logger.Info().Msgf("→ Cache: %s (ttl: %s)", cfg.Cache.Backend, cfg.Cache.TTL)
	if cfg.Proxy.Enabled() {
		if cfg.Proxy.WebshareUsername != "" {
			logger.Info().Msg("→ Proxy: webshare residential gateway")
		} else {
			logger.Info().Msgf("→ Proxy: %s", maskURL(firstNonEmpty(cfg.Proxy.HTTPSURL, cfg.Proxy.HTTPURL)))
		}
	} else {
		logger.Info().Msg("→ Proxy: none (direct; cloud egress IPs are often blocked by YouTube)")
	}
	if cfg.APIToken != "" {
		logger.Info().Msg("→ API token: configured")
	} else {
		logger.Warn().
			Str("security", "weak").
			Msg("→ API token: NOT configured (mutating routes open). Set VIDTEXT_API_TOKEN for security.")
	}

	// Storage layers
	hotCache, err := buildCache(cfg.Cache)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "cache.open_failed").
			Str("backend", cfg.Cache.Backend).
			Msg("failed to open cache backend")
	}

	blobs, err := store.Open(cfg.Store.Dir)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "store.open_failed").
			Str("dir", cfg.Store.Dir).
			Msg("failed to open transcript store")
	}

	history, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "archive.open_failed").
			Str("path", cfg.Archive.Path).
			Msg("failed to open fetch history database")
	}

	// Tracing (no-op provider when disabled)
	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "vid-text",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "telemetry.init_failed").
			Msg("failed to initialize trace exporter")
	}

	runner := jobs.NewRunner(client, hotCache, blobs, history, daemon.JobsConfig(cfg))

	// Readiness checkers: storage must work, upstream is informational
	// unless strict readiness is enabled.
	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewDirChecker("data-dir", cfg.DataDir))
	hm.RegisterChecker(health.NewPingChecker("store", blobs.HealthCheck))
	hm.RegisterChecker(health.NewPingChecker("archive", history.HealthCheck))
	hm.RegisterChecker(health.NewUpstreamChecker(
		client.Ping,
		func() string { return client.Breaker().State().String() },
		cfg.ReadyStrict,
	))
	hm.RegisterChecker(health.NewLastFetchChecker(runner.LastFetch))
	if cfg.ReadyStrict {
		logger.Info().Msg("Strict readiness checks enabled: /readyz fails when YouTube is unreachable")
	}

	// Hot reload support: watch config file and allow SIGHUP-triggered reload.
	holderPath := effectiveConfigPath
	cfgHolder := config.NewHolder(cfg, config.NewLoader(holderPath, version.Version), holderPath)

	s := api.New(api.Deps{
		Config:       cfg,
		Runner:       runner,
		Archive:      history,
		Store:        blobs,
		Health:       hm,
		BreakerState: func() string { return client.Breaker().State().String() },
	})

	deps := daemon.Deps{
		Logger:     logger,
		Config:     cfg,
		APIHandler: s.Handler(),
	}
	if cfg.MetricsListen != "" {
		deps.MetricsHandler = promhttp.Handler()
	}

	mgr, err := daemon.NewManager(cfg.Server, deps)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.creation.failed").
			Msg("failed to create daemon manager")
	}

	// LIFO: telemetry flushes last, stores close before the cache.
	mgr.RegisterShutdownHook("telemetry", tracing.Shutdown)
	mgr.RegisterShutdownHook("archive", func(context.Context) error { return history.Close() })
	mgr.RegisterShutdownHook("store", func(context.Context) error { return blobs.Close() })
	mgr.RegisterShutdownHook("cache", func(context.Context) error {
		if closer, ok := hotCache.(io.Closer); ok {
			return closer.Close()
		}
		return nil
	})

	// Start daemon app (blocks until shutdown)
	app := daemon.NewApp(logger, mgr, cfgHolder, runner, blobs)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}

// resolveDefaultConfigPath returns ${VIDTEXT_DATA_DIR}/config.yaml when the
// file exists, so a mounted config survives restarts without flags.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(config.ParseString("VIDTEXT_DATA_DIR", ""))
	if dataDir == "" {
		return ""
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

// upstreamProxy maps the static proxy settings onto the client's proxy
// config. Webshare credentials win over generic URLs; both is a validation
// error earlier in the load path.
func upstreamProxy(p config.ProxyConfig) youtube.ProxyConfig {
	if p.WebshareUsername != "" {
		return youtube.WebshareProxyConfig{
			Username:  p.WebshareUsername,
			Password:  p.WebsharePassword,
			Countries: p.WebshareCountries,
		}
	}
	if p.HTTPURL != "" || p.HTTPSURL != "" {
		return youtube.GenericProxyConfig{
			HTTP:  p.HTTPURL,
			HTTPS: p.HTTPSURL,
		}
	}
	return nil
}

func buildCache(cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend == "redis" {
		return cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return cache.NewMemory(5 * time.Minute), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
