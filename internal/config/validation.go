// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"

	"github.com/ExponentialDS/vid-text/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("Listen", cfg.Listen)
	v.Directory("DataDir", cfg.DataDir, false)
	v.OneOf("LogLevel", cfg.LogLevel, []string{"trace", "debug", "info", "warn", "error"})

	if len(cfg.Languages) == 0 {
		v.AddError("Languages", "at least one language must be configured", "")
	}
	for _, lang := range cfg.Languages {
		v.LanguageCode("Languages", lang)
	}
	if cfg.TranslateTo != "" {
		v.LanguageCode("TranslateTo", cfg.TranslateTo)
	}

	if cfg.YouTube.Timeout <= 0 {
		v.AddError("YouTube.Timeout", "must be > 0", cfg.YouTube.Timeout)
	}
	if cfg.YouTube.RateRPS <= 0 {
		v.AddError("YouTube.RateRPS", "must be > 0", cfg.YouTube.RateRPS)
	}
	v.Positive("YouTube.RateBurst", cfg.YouTube.RateBurst)
	v.Range("YouTube.BreakerThreshold", cfg.YouTube.BreakerThreshold, 1, 100)
	if cfg.YouTube.BreakerReset <= 0 {
		v.AddError("YouTube.BreakerReset", "must be > 0", cfg.YouTube.BreakerReset)
	}

	if strings.TrimSpace(cfg.Proxy.HTTPURL) != "" {
		v.URL("Proxy.HTTPURL", cfg.Proxy.HTTPURL, []string{"http", "https", "socks5"})
	}
	if strings.TrimSpace(cfg.Proxy.HTTPSURL) != "" {
		v.URL("Proxy.HTTPSURL", cfg.Proxy.HTTPSURL, []string{"http", "https", "socks5"})
	}
	if cfg.Proxy.WebshareUsername != "" && cfg.Proxy.WebsharePassword == "" {
		v.AddError("Proxy.WebsharePassword", "must be set when WebshareUsername is configured", "")
	}
	if cfg.Proxy.WebsharePassword != "" && cfg.Proxy.WebshareUsername == "" {
		v.AddError("Proxy.WebshareUsername", "must be set when WebsharePassword is configured", "")
	}
	if cfg.Proxy.WebshareUsername != "" && (cfg.Proxy.HTTPURL != "" || cfg.Proxy.HTTPSURL != "") {
		v.AddError("Proxy", "webshare and generic proxy settings are mutually exclusive", "")
	}

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{"memory", "redis"})
	if cfg.Cache.TTL <= 0 {
		v.AddError("Cache.TTL", "must be > 0", cfg.Cache.TTL)
	}
	if cfg.Cache.Backend == "redis" {
		v.NotEmpty("Cache.RedisAddr", cfg.Cache.RedisAddr)
	}

	v.NotEmpty("Store.Dir", cfg.Store.Dir)
	v.NonNegative("Store.TTL", int(cfg.Store.TTL))
	v.NotEmpty("Archive.Path", cfg.Archive.Path)

	v.Positive("RateLimit.Requests", cfg.RateLimit.Requests)
	if cfg.RateLimit.Window <= 0 {
		v.AddError("RateLimit.Window", "must be > 0", cfg.RateLimit.Window)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.Custom("Telemetry.SampleRatio", cfg.Telemetry.SampleRatio, func(val interface{}) error {
			ratio, ok := val.(float64)
			if !ok || ratio < 0 || ratio > 1 {
				return fmt.Errorf("must be between 0.0 and 1.0, got %v", val)
			}
			return nil
		})
	}

	if !v.IsValid() {
		return v.Err()
	}

	return nil
}
