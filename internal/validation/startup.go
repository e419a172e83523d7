// SPDX-License-Identifier: MIT

// Package validation runs pre-flight startup checks so misconfiguration
// fails fast instead of surfacing on the first request.
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/log"
)

// Pinger probes upstream reachability. Nil skips the probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PerformStartupChecks validates the environment before the servers start.
// The upstream probe is informational only: a blocked egress IP must not
// keep the service from serving stored content.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig, upstream Pinger) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	if err := checkListenAddr(logger, "listen", cfg.Listen); err != nil {
		return err
	}
	if cfg.MetricsListen != "" {
		if err := checkListenAddr(logger, "metricsListen", cfg.MetricsListen); err != nil {
			return err
		}
	}

	if err := checkProxy(logger, cfg.Proxy); err != nil {
		return fmt.Errorf("proxy check failed: %w", err)
	}

	checkUpstream(ctx, logger, upstream)

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	// The service owns its data dir; create it if needed.
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("data directory is writable")
	return nil
}

func checkListenAddr(logger zerolog.Logger, field, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s address %q: %w", field, addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid %s port %q in %q", field, port, addr)
	}
	logger.Info().Str("addr", addr).Str("field", field).Msg("listen address is valid")
	return nil
}

func checkProxy(logger zerolog.Logger, proxy config.ProxyConfig) error {
	for field, raw := range map[string]string{
		"httpUrl":  proxy.HTTPURL,
		"httpsUrl": proxy.HTTPSURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid proxy %s: %w", field, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "socks5" {
			return fmt.Errorf("proxy %s scheme must be http, https or socks5, got: %s", field, u.Scheme)
		}
	}

	if proxy.WebshareUsername != "" && proxy.WebsharePassword == "" {
		return fmt.Errorf("webshare proxy requires both username and password")
	}

	if proxy.Enabled() {
		logger.Info().Msg("proxy configuration is valid")
	}
	return nil
}

func checkUpstream(ctx context.Context, logger zerolog.Logger, upstream Pinger) {
	if upstream == nil {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := upstream.Ping(probeCtx); err != nil {
		// Shared cloud egress IPs are frequently blocked by YouTube; the
		// documented mitigation is running locally or configuring a proxy.
		logger.Warn().Err(err).Msg("upstream probe failed, transcript fetches may be blocked from this network")
		return
	}
	logger.Info().Msg("upstream is reachable")
}
