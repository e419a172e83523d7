// SPDX-License-Identifier: MIT

package validation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ExponentialDS/vid-text/internal/config"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(_ context.Context) error { return p.err }

func validConfig(t *testing.T) config.AppConfig {
	t.Helper()
	return config.AppConfig{
		Listen:  ":8080",
		DataDir: t.TempDir(),
	}
}

func TestPerformStartupChecks_Valid(t *testing.T) {
	cfg := validConfig(t)
	if err := PerformStartupChecks(context.Background(), cfg, nil); err != nil {
		t.Errorf("expected checks to pass: %v", err)
	}
}

func TestPerformStartupChecks_CreatesDataDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	if err := PerformStartupChecks(context.Background(), cfg, nil); err != nil {
		t.Errorf("missing data dir should be created: %v", err)
	}
}

func TestPerformStartupChecks_BadListenAddr(t *testing.T) {
	cfg := validConfig(t)
	cfg.Listen = "not-an-address"

	if err := PerformStartupChecks(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for unparseable listen address")
	}

	cfg = validConfig(t)
	cfg.Listen = ":8080"
	cfg.MetricsListen = "localhost:99999"
	if err := PerformStartupChecks(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for out-of-range metrics port")
	}
}

func TestPerformStartupChecks_BadProxy(t *testing.T) {
	cfg := validConfig(t)
	cfg.Proxy.HTTPURL = "ftp://proxy.example.com:21"
	if err := PerformStartupChecks(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for unsupported proxy scheme")
	}

	cfg = validConfig(t)
	cfg.Proxy.WebshareUsername = "user"
	if err := PerformStartupChecks(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for webshare username without password")
	}
}

func TestPerformStartupChecks_UpstreamFailureIsNonFatal(t *testing.T) {
	cfg := validConfig(t)
	pinger := stubPinger{err: errors.New("connect: blocked")}

	if err := PerformStartupChecks(context.Background(), cfg, pinger); err != nil {
		t.Errorf("upstream probe failure must not fail startup: %v", err)
	}
}
