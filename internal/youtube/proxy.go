// SPDX-License-Identifier: MIT

package youtube

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ProxyConfig supplies per-scheme proxy URLs for outbound requests.
// Implementations return an empty string when no proxy applies.
type ProxyConfig interface {
	HTTPURL() string
	HTTPSURL() string
}

// GenericProxyConfig routes requests through explicitly configured proxies.
type GenericProxyConfig struct {
	HTTP  string
	HTTPS string
}

func (g GenericProxyConfig) HTTPURL() string  { return g.HTTP }
func (g GenericProxyConfig) HTTPSURL() string { return g.HTTPS }

// WebshareProxyConfig builds the Webshare rotating-residential gateway URL
// from account credentials. An optional country filter narrows the exit pool.
// The gateway rotates exit IPs on its side; this client holds exactly one
// gateway endpoint and performs no rotation of its own.
type WebshareProxyConfig struct {
	Username  string
	Password  string
	Countries []string
	// Domain and Port override the default gateway endpoint, mostly for tests.
	Domain string
	Port   int
}

const (
	webshareDefaultDomain = "p.webshare.io"
	websharePort          = 80
)

func (w WebshareProxyConfig) gatewayURL() string {
	domain := w.Domain
	if domain == "" {
		domain = webshareDefaultDomain
	}
	port := w.Port
	if port == 0 {
		port = websharePort
	}

	var filter strings.Builder
	for _, c := range w.Countries {
		filter.WriteString("-")
		filter.WriteString(strings.ToUpper(strings.TrimSpace(c)))
	}

	u := url.URL{
		Scheme: "http",
		User:   url.UserPassword(w.Username+filter.String()+"-rotate", w.Password),
		Host:   fmt.Sprintf("%s:%d", domain, port),
		Path:   "/",
	}
	return u.String()
}

func (w WebshareProxyConfig) HTTPURL() string  { return w.gatewayURL() }
func (w WebshareProxyConfig) HTTPSURL() string { return w.gatewayURL() }

// proxyFunc converts a ProxyConfig into an http.Transport proxy selector.
// A nil config falls back to the process environment (HTTP_PROXY et al).
func proxyFunc(cfg ProxyConfig) func(*http.Request) (*url.URL, error) {
	if cfg == nil {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		var raw string
		switch req.URL.Scheme {
		case "https":
			raw = cfg.HTTPSURL()
		default:
			raw = cfg.HTTPURL()
		}
		if raw == "" {
			return nil, nil
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		return u, nil
	}
}
