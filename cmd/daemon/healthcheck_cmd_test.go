// SPDX-License-Identifier: MIT
package main

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func healthcheckTestServer(t *testing.T, handler http.Handler) int {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	_, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return port
}

func TestRunHealthcheckCLI(t *testing.T) {
	t.Run("ready ok", func(t *testing.T) {
		port := healthcheckTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/readyz" {
				http.NotFound(w, r)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

		if got := runHealthcheckCLI([]string{"-port", strconv.Itoa(port)}); got != 0 {
			t.Fatalf("exit = %d, want 0", got)
		}
	})

	t.Run("live ok", func(t *testing.T) {
		port := healthcheckTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/healthz" {
				http.NotFound(w, r)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

		if got := runHealthcheckCLI([]string{"-mode", "live", "-port", strconv.Itoa(port)}); got != 0 {
			t.Fatalf("exit = %d, want 0", got)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		port := healthcheckTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		if got := runHealthcheckCLI([]string{"-port", strconv.Itoa(port)}); got != 1 {
			t.Fatalf("exit = %d, want 1", got)
		}
	})

	t.Run("daemon down", func(t *testing.T) {
		// Grab a free port and release it so the connection is refused.
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		_, portStr, _ := net.SplitHostPort(l.Addr().String())
		_ = l.Close()

		if got := runHealthcheckCLI([]string{"-port", portStr}); got != 1 {
			t.Fatalf("exit = %d, want 1", got)
		}
	})
}
