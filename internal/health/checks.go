// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// DirChecker verifies a directory exists and is writable.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for a writable directory.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(ctx context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: StatusUnhealthy, Error: "directory not found", Message: c.path}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "not a directory", Message: c.path}
	}

	probe := filepath.Join(c.path, ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "not writable: " + err.Error()}
	}
	_ = os.Remove(probe)

	return CheckResult{Status: StatusHealthy, Message: "writable"}
}

// PingChecker wraps a component's own health probe (store, archive, redis).
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingChecker creates a checker around a ping function.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if c.ping == nil {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// UpstreamChecker probes YouTube reachability and reflects the circuit
// breaker state. A blocked or unreachable upstream keeps the service
// usable for stored content, so failures degrade rather than fail unless
// strict is set.
type UpstreamChecker struct {
	ping         func(ctx context.Context) error
	breakerState func() string
	strict       bool
}

// NewUpstreamChecker creates an upstream reachability checker.
func NewUpstreamChecker(ping func(ctx context.Context) error, breakerState func() string, strict bool) *UpstreamChecker {
	return &UpstreamChecker{ping: ping, breakerState: breakerState, strict: strict}
}

func (c *UpstreamChecker) Name() string { return "upstream" }

func (c *UpstreamChecker) Check(ctx context.Context) CheckResult {
	failStatus := StatusDegraded
	if c.strict {
		failStatus = StatusUnhealthy
	}

	if c.breakerState != nil {
		if state := c.breakerState(); state == "open" {
			return CheckResult{
				Status:  failStatus,
				Message: "circuit breaker open, upstream is rejecting this egress IP",
			}
		}
	}

	if c.ping != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.ping(probeCtx); err != nil {
			return CheckResult{Status: failStatus, Error: err.Error(), Message: "upstream unreachable"}
		}
	}

	return CheckResult{Status: StatusHealthy, Message: "upstream reachable"}
}

// LastFetchChecker reflects the outcome of the most recent fetch. The
// service is request-driven, so having served no fetches yet is healthy;
// a failed last fetch only degrades.
type LastFetchChecker struct {
	getLastFetch func() (time.Time, string)
}

// NewLastFetchChecker creates a checker over the fetch pipeline status.
func NewLastFetchChecker(getLastFetch func() (time.Time, string)) *LastFetchChecker {
	return &LastFetchChecker{getLastFetch: getLastFetch}
}

func (c *LastFetchChecker) Name() string { return "last_fetch" }

func (c *LastFetchChecker) Check(ctx context.Context) CheckResult {
	lastFetch, lastError := c.getLastFetch()

	if lastFetch.IsZero() {
		return CheckResult{Status: StatusHealthy, Message: "no fetches yet"}
	}
	if lastError != "" {
		return CheckResult{Status: StatusDegraded, Error: lastError, Message: "last fetch failed"}
	}
	return CheckResult{Status: StatusHealthy, Message: "last fetch succeeded"}
}
