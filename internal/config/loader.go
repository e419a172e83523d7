// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before file and environment merging.
const (
	defaultListen        = ":8080"
	defaultDataDir       = "./data"
	defaultLogLevel      = "info"
	defaultTranslateTo   = "en"
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultYTTimeout     = 15 * time.Second
	defaultYTRateRPS     = 2.0
	defaultYTRateBurst   = 4
	defaultBreakerLimit  = 5
	defaultBreakerReset  = 30 * time.Second
	defaultCacheBackend  = "memory"
	defaultCacheTTL      = 15 * time.Minute
	defaultRLRequests    = 60
	defaultRLWindow      = time.Minute
	defaultReadTimeout   = 30 * time.Second
	defaultWriteTimeout  = 60 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultMaxHeader     = 1 << 20 // 1 MB
	defaultShutdown      = 15 * time.Second
	defaultOTelExporter  = "grpc"
	defaultOTelEndpoint  = "localhost:4317"
	defaultOTelRatio     = 1.0
	defaultOTelEnv       = "development"
)

var defaultLanguages = []string{"en"}

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load resolves the configuration: defaults, then the YAML file (strict),
// then environment overrides, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
	}

	mergeEnv(&cfg)

	// DataDir must be absolute before derived paths are computed
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = filepath.Join(cfg.DataDir, "store")
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = filepath.Join(cfg.DataDir, "history.db")
	}

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		Listen:      defaultListen,
		DataDir:     defaultDataDir,
		LogLevel:    defaultLogLevel,
		Languages:   append([]string(nil), defaultLanguages...),
		TranslateTo: defaultTranslateTo,
		YouTube: YouTubeConfig{
			Timeout:          defaultYTTimeout,
			UserAgent:        defaultUserAgent,
			RateRPS:          defaultYTRateRPS,
			RateBurst:        defaultYTRateBurst,
			BreakerThreshold: defaultBreakerLimit,
			BreakerReset:     defaultBreakerReset,
		},
		Cache: CacheConfig{
			Backend: defaultCacheBackend,
			TTL:     defaultCacheTTL,
		},
		Server: ServerConfig{
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			MaxHeaderBytes:  defaultMaxHeader,
			ShutdownTimeout: defaultShutdown,
		},
		RateLimit: RateLimitConfig{
			Requests: defaultRLRequests,
			Window:   defaultRLWindow,
		},
		Telemetry: TelemetryConfig{
			Exporter:    defaultOTelExporter,
			Endpoint:    defaultOTelEndpoint,
			SampleRatio: defaultOTelRatio,
			Environment: defaultOTelEnv,
		},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields cause an error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFile(cfg *AppConfig, f *FileConfig) {
	setString(&cfg.Listen, f.Listen)
	setString(&cfg.MetricsListen, f.MetricsListen)
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.APIToken, f.APIToken)
	setString(&cfg.LogLevel, f.LogLevel)
	if len(f.CORSOrigins) > 0 {
		cfg.CORSOrigins = append([]string(nil), f.CORSOrigins...)
	}
	setBool(&cfg.ReadyStrict, f.ReadyStrict)

	if len(f.Languages) > 0 {
		cfg.Languages = append([]string(nil), f.Languages...)
	}
	setString(&cfg.TranslateTo, f.TranslateTo)
	setBool(&cfg.PreserveFormatting, f.PreserveFormatting)

	if f.YouTube != nil {
		setDuration(&cfg.YouTube.Timeout, f.YouTube.Timeout)
		setString(&cfg.YouTube.UserAgent, f.YouTube.UserAgent)
		setFloat(&cfg.YouTube.RateRPS, f.YouTube.RateRPS)
		setInt(&cfg.YouTube.RateBurst, f.YouTube.RateBurst)
		setInt(&cfg.YouTube.BreakerThreshold, f.YouTube.BreakerThreshold)
		setDuration(&cfg.YouTube.BreakerReset, f.YouTube.BreakerReset)
	}

	if f.Proxy != nil {
		setString(&cfg.Proxy.HTTPURL, f.Proxy.HTTPURL)
		setString(&cfg.Proxy.HTTPSURL, f.Proxy.HTTPSURL)
		setString(&cfg.Proxy.WebshareUsername, f.Proxy.WebshareUsername)
		setString(&cfg.Proxy.WebsharePassword, f.Proxy.WebsharePassword)
		if len(f.Proxy.WebshareCountries) > 0 {
			cfg.Proxy.WebshareCountries = append([]string(nil), f.Proxy.WebshareCountries...)
		}
	}

	if f.Cache != nil {
		setString(&cfg.Cache.Backend, f.Cache.Backend)
		setDuration(&cfg.Cache.TTL, f.Cache.TTL)
		setString(&cfg.Cache.RedisAddr, f.Cache.RedisAddr)
		setString(&cfg.Cache.RedisPassword, f.Cache.RedisPassword)
		setInt(&cfg.Cache.RedisDB, f.Cache.RedisDB)
	}

	if f.Store != nil {
		setString(&cfg.Store.Dir, f.Store.Dir)
		setDuration(&cfg.Store.TTL, f.Store.TTL)
	}

	if f.Archive != nil {
		setString(&cfg.Archive.Path, f.Archive.Path)
	}

	if f.Server != nil {
		setDuration(&cfg.Server.ReadTimeout, f.Server.ReadTimeout)
		setDuration(&cfg.Server.WriteTimeout, f.Server.WriteTimeout)
		setDuration(&cfg.Server.IdleTimeout, f.Server.IdleTimeout)
		setInt(&cfg.Server.MaxHeaderBytes, f.Server.MaxHeaderBytes)
		setDuration(&cfg.Server.ShutdownTimeout, f.Server.ShutdownTimeout)
	}

	if f.RateLimit != nil {
		setInt(&cfg.RateLimit.Requests, f.RateLimit.Requests)
		setDuration(&cfg.RateLimit.Window, f.RateLimit.Window)
	}

	if f.Telemetry != nil {
		setBool(&cfg.Telemetry.Enabled, f.Telemetry.Enabled)
		setString(&cfg.Telemetry.Exporter, f.Telemetry.Exporter)
		setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
		setFloat(&cfg.Telemetry.SampleRatio, f.Telemetry.SampleRatio)
		setString(&cfg.Telemetry.Environment, f.Telemetry.Environment)
	}
}

func mergeEnv(cfg *AppConfig) {
	cfg.Listen = ParseString("VIDTEXT_LISTEN", cfg.Listen)
	cfg.MetricsListen = ParseString("VIDTEXT_METRICS_LISTEN", cfg.MetricsListen)
	cfg.DataDir = ParseString("VIDTEXT_DATA_DIR", cfg.DataDir)
	cfg.APIToken = ParseString("VIDTEXT_API_TOKEN", cfg.APIToken)
	cfg.LogLevel = ParseString("VIDTEXT_LOG_LEVEL", cfg.LogLevel)
	cfg.CORSOrigins = ParseStringList("VIDTEXT_CORS_ORIGINS", cfg.CORSOrigins)
	cfg.ReadyStrict = ParseBool("VIDTEXT_READY_STRICT", cfg.ReadyStrict)

	cfg.Languages = ParseStringList("VIDTEXT_LANGUAGES", cfg.Languages)
	cfg.TranslateTo = ParseString("VIDTEXT_TRANSLATE_TO", cfg.TranslateTo)
	cfg.PreserveFormatting = ParseBool("VIDTEXT_PRESERVE_FORMATTING", cfg.PreserveFormatting)

	cfg.YouTube.Timeout = ParseDuration("VIDTEXT_YT_TIMEOUT", cfg.YouTube.Timeout)
	cfg.YouTube.UserAgent = ParseString("VIDTEXT_YT_USER_AGENT", cfg.YouTube.UserAgent)
	cfg.YouTube.RateRPS = ParseFloat("VIDTEXT_YT_RATE_RPS", cfg.YouTube.RateRPS)
	cfg.YouTube.RateBurst = ParseInt("VIDTEXT_YT_RATE_BURST", cfg.YouTube.RateBurst)
	cfg.YouTube.BreakerThreshold = ParseInt("VIDTEXT_YT_BREAKER_THRESHOLD", cfg.YouTube.BreakerThreshold)
	cfg.YouTube.BreakerReset = ParseDuration("VIDTEXT_YT_BREAKER_RESET", cfg.YouTube.BreakerReset)

	cfg.Proxy.HTTPURL = ParseString("VIDTEXT_PROXY_HTTP_URL", cfg.Proxy.HTTPURL)
	cfg.Proxy.HTTPSURL = ParseString("VIDTEXT_PROXY_HTTPS_URL", cfg.Proxy.HTTPSURL)
	cfg.Proxy.WebshareUsername = ParseString("VIDTEXT_WEBSHARE_USERNAME", cfg.Proxy.WebshareUsername)
	cfg.Proxy.WebsharePassword = ParseString("VIDTEXT_WEBSHARE_PASSWORD", cfg.Proxy.WebsharePassword)
	cfg.Proxy.WebshareCountries = ParseStringList("VIDTEXT_WEBSHARE_COUNTRIES", cfg.Proxy.WebshareCountries)

	cfg.Cache.Backend = ParseString("VIDTEXT_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = ParseDuration("VIDTEXT_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = ParseString("VIDTEXT_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = ParseString("VIDTEXT_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = ParseInt("VIDTEXT_REDIS_DB", cfg.Cache.RedisDB)

	cfg.Store.Dir = ParseString("VIDTEXT_STORE_DIR", cfg.Store.Dir)
	cfg.Store.TTL = ParseDuration("VIDTEXT_STORE_TTL", cfg.Store.TTL)
	cfg.Archive.Path = ParseString("VIDTEXT_ARCHIVE_PATH", cfg.Archive.Path)

	cfg.Server.ReadTimeout = ParseDuration("VIDTEXT_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = ParseDuration("VIDTEXT_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = ParseDuration("VIDTEXT_SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxHeaderBytes = ParseInt("VIDTEXT_SERVER_MAX_HEADER_BYTES", cfg.Server.MaxHeaderBytes)
	cfg.Server.ShutdownTimeout = ParseDuration("VIDTEXT_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.RateLimit.Requests = ParseInt("VIDTEXT_RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = ParseDuration("VIDTEXT_RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Telemetry.Enabled = ParseBool("VIDTEXT_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString("VIDTEXT_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString("VIDTEXT_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SampleRatio = ParseFloat("VIDTEXT_OTEL_SAMPLE_RATIO", cfg.Telemetry.SampleRatio)
	cfg.Telemetry.Environment = ParseString("VIDTEXT_OTEL_ENVIRONMENT", cfg.Telemetry.Environment)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *time.Duration) {
	if src != nil {
		*dst = *src
	}
}
