// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func TestCompression(t *testing.T) {
	body := strings.Repeat(`{"airing_id":1,"probability":0.5}`, 100)
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))

	t.Run("gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
			t.Fatalf("Content-Encoding = %q, want gzip", got)
		}
		if got := rec.Header().Get("Vary"); got != "Accept-Encoding" {
			t.Errorf("Vary = %q, want Accept-Encoding", got)
		}
		zr, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatalf("gzip.NewReader() error = %v", err)
		}
		plain, err := io.ReadAll(zr)
		if err != nil {
			t.Fatalf("read gzip body: %v", err)
		}
		if string(plain) != body {
			t.Error("decompressed body does not match")
		}
	})

	t.Run("gzip not accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Content-Encoding"); got != "" {
			t.Errorf("Content-Encoding = %q, want none", got)
		}
		if rec.Body.String() != body {
			t.Error("body was modified")
		}
	})
}

func TestCompressionNoBody(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", rec.Code)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want none on 304", got)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body length = %d, want 0", rec.Body.Len())
	}
}

func TestPerformanceMonitorWindow(t *testing.T) {
	pm := NewPerformanceMonitor(3, 0, zerolog.Nop())
	for i := range 5 {
		pm.RecordRequest(&RequestMetrics{
			Route:    "/api/v1/status",
			Method:   http.MethodGet,
			Duration: time.Duration(i+1) * time.Millisecond,
		})
	}

	stats := pm.Stats()
	if len(stats) != 1 {
		t.Fatalf("len(Stats()) = %d, want 1", len(stats))
	}
	s := stats[0]
	if s.RequestCount != 3 {
		t.Errorf("RequestCount = %d, want 3 (window size)", s.RequestCount)
	}
	if s.MaxMS != 5 {
		t.Errorf("MaxMS = %d, want 5", s.MaxMS)
	}
	if s.P50MS != 4 {
		t.Errorf("P50MS = %d, want 4", s.P50MS)
	}
	if s.AvgMS != 4 {
		t.Errorf("AvgMS = %v, want 4", s.AvgMS)
	}
}

func TestPerformanceMonitorMiddleware(t *testing.T) {
	var buf bytes.Buffer
	pm := NewPerformanceMonitor(100, time.Nanosecond, zerolog.New(&buf))

	r := chi.NewRouter()
	r.Use(pm.Middleware)
	r.Get("/airings/{id}", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/recompute", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, path := range []string{"/airings/1", "/airings/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/recompute", nil))

	stats := pm.Stats()
	if len(stats) != 2 {
		t.Fatalf("len(Stats()) = %d, want 2: %+v", len(stats), stats)
	}
	if stats[0].Endpoint != "GET /airings/{id}" || stats[0].RequestCount != 2 {
		t.Errorf("busiest endpoint = %+v, want GET /airings/{id} x2", stats[0])
	}
	if stats[1].Endpoint != "POST /recompute" {
		t.Errorf("second endpoint = %q, want POST /recompute", stats[1].Endpoint)
	}
	if !strings.Contains(buf.String(), "Slow request detected") {
		t.Error("expected slow request log entry")
	}
	if !strings.Contains(buf.String(), `"route":"/airings/{id}"`) {
		t.Errorf("slow log missing route pattern: %s", buf.String())
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []int64
		p      float64
		want   int64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []int64{7}, 0.99, 7},
		{"median", []int64{1, 2, 3, 4, 5}, 0.5, 3},
		{"p99", []int64{1, 2, 3, 4, 5}, 0.99, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.sorted, tt.p); got != tt.want {
				t.Errorf("percentile() = %d, want %d", got, tt.want)
			}
		})
	}
}
