// SPDX-License-Identifier: MIT

package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/metrics"
)

const (
	defaultBaseURL   = "https://www.youtube.com"
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// maxBodyBytes caps upstream reads. Watch pages run around 1 MiB,
	// auto-generated tracks for long videos can exceed that.
	maxBodyBytes = 16 << 20
)

// Options configures a Client. Zero values fall back to package defaults.
type Options struct {
	// BaseURL overrides the upstream origin, used by tests.
	BaseURL string
	// OEmbedBaseURL overrides the oEmbed origin, used by tests.
	OEmbedBaseURL string
	Timeout       time.Duration
	UserAgent     string
	// Proxy routes all upstream calls through the given proxy. Nil means
	// direct connection honoring the standard proxy environment variables.
	Proxy ProxyConfig
	// RateRPS and RateBurst gate outbound request pacing. RateRPS <= 0
	// disables the gate.
	RateRPS   float64
	RateBurst int
	// BreakerThreshold and BreakerReset tune the upstream circuit breaker.
	BreakerThreshold int
	BreakerReset     time.Duration
	// HTTPClient replaces the built transport entirely, used by tests.
	HTTPClient *http.Client
}

// Client talks to the YouTube watch page, timedtext and oEmbed endpoints.
// Every call is a single attempt. Failures are classified and returned to
// the caller, never retried.
type Client struct {
	base       string
	oembedBase string
	http       *http.Client
	userAgent  string
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
}

// New builds a Client from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	oembedBase := strings.TrimRight(opts.OEmbedBaseURL, "/")
	if oembedBase == "" {
		oembedBase = base
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	threshold := opts.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	reset := opts.BreakerReset
	if reset <= 0 {
		reset = 30 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			Proxy:               proxyFunc(opts.Proxy),
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		}
	}

	var limiter *rate.Limiter
	if opts.RateRPS > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateRPS), burst)
	}

	return &Client{
		base:       base,
		oembedBase: oembedBase,
		http:       httpClient,
		userAgent:  ua,
		limiter:    limiter,
		breaker:    NewCircuitBreaker(threshold, reset),
	}
}

// Breaker exposes the upstream circuit breaker state for health reporting.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// responseClassifier inspects a completed response and may turn it into
// an error. It runs inside the breaker window so that classifications
// like a recaptcha interstitial count as upstream failures.
type responseClassifier func(status int, body []byte) error

// get performs one paced, breaker-guarded request against rawURL.
// Infrastructure failures (transport errors, timeouts, 429, 5xx, and any
// infrastructure-class error from classify) trip the breaker. Video-level
// errors pass through without counting.
func (c *Client) get(ctx context.Context, op, videoID, rawURL string, classify responseClassifier) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, &YTError{Sentinel: ErrTimeout, Operation: op, VideoID: videoID, Err: err}
		}
	}

	var (
		body   []byte
		status int
		opErr  error
	)
	err := c.breaker.Execute(func() error {
		body, status, opErr = c.doOnce(ctx, op, videoID, rawURL)
		if opErr == nil && classify != nil {
			opErr = classify(status, body)
		}
		if opErr != nil && infrastructureError(opErr) {
			return opErr
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, 0, &YTError{Sentinel: ErrCircuitOpen, Operation: op, VideoID: videoID}
		}
		return nil, status, err
	}
	return body, status, opErr
}

func (c *Client) doOnce(ctx context.Context, op, videoID, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &YTError{Sentinel: ErrUpstreamUnavailable, Operation: op, VideoID: videoID, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	// English UI keeps playability reasons and track names stable.
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstreamRequest(op, 0, time.Since(start))
		return nil, 0, classifyTransportError(op, videoID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.ObserveUpstreamRequest(op, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &YTError{
			Sentinel:  ErrUpstreamUnavailable,
			Operation: op,
			VideoID:   videoID,
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("read body: %w", err),
		}
	}

	log.WithComponent("youtube").Debug().
		Str("event", "upstream.request").
		Str(log.FieldVideoID, videoID).
		Str("op", op).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("upstream request finished")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, &YTError{
			Sentinel:   ErrRateLimited,
			Operation:  op,
			VideoID:    videoID,
			Status:     resp.StatusCode,
			Body:       truncateBody(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, resp.StatusCode, &YTError{
			Sentinel:  ErrUpstreamError,
			Operation: op,
			VideoID:   videoID,
			Status:    resp.StatusCode,
			Body:      truncateBody(body),
		}
	}
	return body, resp.StatusCode, nil
}

func classifyTransportError(op, videoID string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &YTError{Sentinel: ErrTimeout, Operation: op, VideoID: videoID, Err: err}
	case errors.Is(err, context.Canceled):
		return &YTError{Sentinel: ErrTimeout, Operation: op, VideoID: videoID, Err: err}
	default:
		return &YTError{Sentinel: ErrUpstreamUnavailable, Operation: op, VideoID: videoID, Err: err}
	}
}

// infrastructureError reports whether err should count against the
// circuit breaker, as opposed to a fact about the requested video.
func infrastructureError(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUpstreamError) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrIPBlocked) ||
		errors.Is(err, ErrTimeout)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncateBody(body []byte) string {
	const max = 256
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}

// Ping probes upstream reachability with a cheap uncacheable request.
// Health checks use it to distinguish network trouble from video-level
// failures.
func (c *Client) Ping(ctx context.Context) error {
	body, status, err := c.get(ctx, "ping", "", c.base+"/robots.txt", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &YTError{Sentinel: ErrUpstreamBadResponse, Operation: "ping", Status: status, Body: truncateBody(body)}
	}
	return nil
}
