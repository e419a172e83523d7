// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"
)

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	// Listen is the address of the main API server (e.g. ":8080").
	Listen string
	// MetricsListen is the address of the optional separate metrics server.
	// Empty means /metrics is served on the main listener.
	MetricsListen string
	// DataDir is the root directory for exports, the content store and the
	// fetch history database. Always absolute after loading.
	DataDir string
	// APIToken guards mutating API routes when non-empty.
	APIToken string
	// LogLevel is the zerolog level name ("debug", "info", ...).
	LogLevel string
	// CORSOrigins lists allowed CORS origins for the API.
	CORSOrigins []string
	// ReadyStrict makes /readyz probe YouTube reachability.
	ReadyStrict bool

	// Languages is the transcript language priority list.
	Languages []string
	// TranslateTo is the translation fallback target language.
	TranslateTo string
	// PreserveFormatting keeps inline caption markup (<b>, <i>) in output.
	PreserveFormatting bool

	YouTube   YouTubeConfig
	Proxy     ProxyConfig
	Cache     CacheConfig
	Store     StoreConfig
	Archive   ArchiveConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig

	// Version is stamped by the binary at load time.
	Version string
}

// String implements fmt.Stringer with secrets redacted, so printing the
// config in logs never leaks tokens or proxy credentials.
func (c AppConfig) String() string {
	return fmt.Sprintf("%+v", MaskSecrets(c))
}

// YouTubeConfig tunes the upstream client.
type YouTubeConfig struct {
	Timeout   time.Duration
	UserAgent string
	// RateRPS and RateBurst gate outbound requests to YouTube.
	RateRPS   float64
	RateBurst int
	// BreakerThreshold consecutive failures open the circuit,
	// BreakerReset later it half-opens.
	BreakerThreshold int
	BreakerReset     time.Duration
}

// ProxyConfig routes upstream traffic through a static proxy. Requests from
// shared cloud egress IPs are frequently blocked by YouTube; a residential
// proxy (or running the service locally) is the documented way around that.
// There is no rotation logic here, one proxy configuration is used as given.
type ProxyConfig struct {
	// HTTPURL and HTTPSURL configure a generic forward proxy per scheme.
	HTTPURL  string
	HTTPSURL string
	// Webshare credentials build the rotating-residential gateway endpoint.
	WebshareUsername  string
	WebsharePassword  string
	WebshareCountries []string
}

// Enabled reports whether any proxy settings are present.
func (p ProxyConfig) Enabled() bool {
	return p.HTTPURL != "" || p.HTTPSURL != "" || p.WebshareUsername != ""
}

// CacheConfig selects and tunes the hot-path cache.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// StoreConfig tunes the durable transcript store.
type StoreConfig struct {
	// Dir defaults to <DataDir>/store.
	Dir string
	// TTL of stored transcripts; zero keeps them until deleted.
	TTL time.Duration
}

// ArchiveConfig locates the fetch history database.
type ArchiveConfig struct {
	// Path defaults to <DataDir>/history.db.
	Path string
}

// ServerConfig holds HTTP server timeouts.
type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// RateLimitConfig tunes the inbound API rate limiter.
type RateLimitConfig struct {
	// Requests allowed per client IP within Window.
	Requests int
	Window   time.Duration
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Enabled bool
	// Exporter is "grpc" or "http".
	Exporter    string
	Endpoint    string
	SampleRatio float64
	Environment string
}

// FileConfig mirrors AppConfig for strict YAML parsing. Pointer fields
// distinguish "absent" from "zero" during the merge.
type FileConfig struct {
	Listen        *string  `yaml:"listen,omitempty"`
	MetricsListen *string  `yaml:"metricsListen,omitempty"`
	DataDir       *string  `yaml:"dataDir,omitempty"`
	APIToken      *string  `yaml:"apiToken,omitempty"`
	LogLevel      *string  `yaml:"logLevel,omitempty"`
	CORSOrigins   []string `yaml:"corsOrigins,omitempty"`
	ReadyStrict   *bool    `yaml:"readyStrict,omitempty"`

	Languages          []string `yaml:"languages,omitempty"`
	TranslateTo        *string  `yaml:"translateTo,omitempty"`
	PreserveFormatting *bool    `yaml:"preserveFormatting,omitempty"`

	YouTube *struct {
		Timeout          *time.Duration `yaml:"timeout,omitempty"`
		UserAgent        *string        `yaml:"userAgent,omitempty"`
		RateRPS          *float64       `yaml:"rateRps,omitempty"`
		RateBurst        *int           `yaml:"rateBurst,omitempty"`
		BreakerThreshold *int           `yaml:"breakerThreshold,omitempty"`
		BreakerReset     *time.Duration `yaml:"breakerReset,omitempty"`
	} `yaml:"youtube,omitempty"`

	Proxy *struct {
		HTTPURL           *string  `yaml:"httpUrl,omitempty"`
		HTTPSURL          *string  `yaml:"httpsUrl,omitempty"`
		WebshareUsername  *string  `yaml:"webshareUsername,omitempty"`
		WebsharePassword  *string  `yaml:"websharePassword,omitempty"`
		WebshareCountries []string `yaml:"webshareCountries,omitempty"`
	} `yaml:"proxy,omitempty"`

	Cache *struct {
		Backend       *string        `yaml:"backend,omitempty"`
		TTL           *time.Duration `yaml:"ttl,omitempty"`
		RedisAddr     *string        `yaml:"redisAddr,omitempty"`
		RedisPassword *string        `yaml:"redisPassword,omitempty"`
		RedisDB       *int           `yaml:"redisDb,omitempty"`
	} `yaml:"cache,omitempty"`

	Store *struct {
		Dir *string        `yaml:"dir,omitempty"`
		TTL *time.Duration `yaml:"ttl,omitempty"`
	} `yaml:"store,omitempty"`

	Archive *struct {
		Path *string `yaml:"path,omitempty"`
	} `yaml:"archive,omitempty"`

	Server *struct {
		ReadTimeout     *time.Duration `yaml:"readTimeout,omitempty"`
		WriteTimeout    *time.Duration `yaml:"writeTimeout,omitempty"`
		IdleTimeout     *time.Duration `yaml:"idleTimeout,omitempty"`
		MaxHeaderBytes  *int           `yaml:"maxHeaderBytes,omitempty"`
		ShutdownTimeout *time.Duration `yaml:"shutdownTimeout,omitempty"`
	} `yaml:"server,omitempty"`

	RateLimit *struct {
		Requests *int           `yaml:"requests,omitempty"`
		Window   *time.Duration `yaml:"window,omitempty"`
	} `yaml:"rateLimit,omitempty"`

	Telemetry *struct {
		Enabled     *bool    `yaml:"enabled,omitempty"`
		Exporter    *string  `yaml:"exporter,omitempty"`
		Endpoint    *string  `yaml:"endpoint,omitempty"`
		SampleRatio *float64 `yaml:"sampleRatio,omitempty"`
		Environment *string  `yaml:"environment,omitempty"`
	} `yaml:"telemetry,omitempty"`
}
