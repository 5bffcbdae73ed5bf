// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/middleware"
)

func TestRateLimit_Disabled(t *testing.T) {
	callCount := 0
	handler := RateLimit(3, time.Second, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusOK)
	}))

	for i := range 10 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if callCount != 10 {
		t.Errorf("callCount = %d, want 10", callCount)
	}
}

func TestRateLimit_DifferentIPs(t *testing.T) {
	handler := RateLimit(2, time.Minute, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ips := []string{"192.168.1.1:12345", "192.168.1.2:12345", "192.168.1.3:12345"}
	for _, ip := range ips {
		for i := range 2 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = ip
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("IP %s request %d: status = %d, want %d", ip, i, w.Code, http.StatusOK)
			}
		}
	}
}

func TestRequestIDWithLogging(t *testing.T) {
	var seen string
	handler := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		got := w.Header().Get(chimiddleware.RequestIDHeader)
		if got == "" {
			t.Fatal("response has no request ID header")
		}
		if seen != got {
			t.Errorf("context request ID = %q, header = %q", seen, got)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(chimiddleware.RequestIDHeader, "upstream-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get(chimiddleware.RequestIDHeader); got != "upstream-42" {
			t.Errorf("header = %q, want upstream-42", got)
		}
		if seen != "upstream-42" {
			t.Errorf("context request ID = %q, want upstream-42", seen)
		}
	})
}

func TestHTTPStatsEndpoint(t *testing.T) {
	a := newTestAPI(t, RouterConfig{RateLimitDisabled: true, PerformanceWindow: 50})

	a.do(t, http.MethodGet, "/api/v1/status", "")
	a.do(t, http.MethodGet, "/api/v1/status", "")

	rec, env := a.do(t, http.MethodGet, "/api/v1/status/http", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	stats := decodeData[[]middleware.EndpointStats](t, env)
	var found bool
	for _, s := range stats {
		if s.Endpoint == "GET /api/v1/status" {
			found = true
			if s.RequestCount != 2 {
				t.Errorf("GET /api/v1/status count = %d, want 2", s.RequestCount)
			}
		}
	}
	if !found {
		t.Errorf("stats missing GET /api/v1/status: %+v", stats)
	}
}
