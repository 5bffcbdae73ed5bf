// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package middleware

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
)

// RequestMetrics is one observed request.
type RequestMetrics struct {
	Route      string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}

// EndpointStats aggregates the requests of one route over the window.
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int64   `json:"request_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        int64   `json:"p50_ms"`
	P95MS        int64   `json:"p95_ms"`
	P99MS        int64   `json:"p99_ms"`
	MaxMS        int64   `json:"max_ms"`
}

// PerformanceMonitor keeps a sliding window of request latencies and
// logs requests slower than a threshold.
type PerformanceMonitor struct {
	mu            sync.RWMutex
	metrics       []RequestMetrics
	maxMetrics    int
	slowThreshold time.Duration
	logger        zerolog.Logger
}

// NewPerformanceMonitor creates a monitor holding at most maxMetrics
// requests. A zero slowThreshold disables slow-request logging.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPerformanceMonitor(maxMetrics int, slowThreshold time.Duration, logger zerolog.Logger) *PerformanceMonitor {
	if maxMetrics < 1 {
		maxMetrics = 1
	}
	return &PerformanceMonitor{
		metrics:       make([]RequestMetrics, 0, maxMetrics),
		maxMetrics:    maxMetrics,
		slowThreshold: slowThreshold,
		logger:        logger.With().Str("component", "http_performance").Logger(),
	}
}

// RecordRequest adds a request to the window, evicting the oldest.
func (pm *PerformanceMonitor) RecordRequest(m *RequestMetrics) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.metrics) == pm.maxMetrics {
		copy(pm.metrics, pm.metrics[1:])
		pm.metrics = pm.metrics[:len(pm.metrics)-1]
	}
	pm.metrics = append(pm.metrics, *m)
}

// Stats returns per-endpoint statistics, busiest first.
func (pm *PerformanceMonitor) Stats() []EndpointStats {
	pm.mu.RLock()
	byEndpoint := make(map[string][]int64)
	for _, m := range pm.metrics {
		key := m.Method + " " + m.Route
		byEndpoint[key] = append(byEndpoint[key], m.Duration.Milliseconds())
	}
	pm.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(byEndpoint))
	for endpoint, durations := range byEndpoint {
		slices.Sort(durations)
		var sum int64
		for _, d := range durations {
			sum += d
		}
		stats = append(stats, EndpointStats{
			Endpoint:     endpoint,
			RequestCount: int64(len(durations)),
			AvgMS:        float64(sum) / float64(len(durations)),
			P50MS:        percentile(durations, 0.50),
			P95MS:        percentile(durations, 0.95),
			P99MS:        percentile(durations, 0.99),
			MaxMS:        durations[len(durations)-1],
		})
	}

	slices.SortFunc(stats, func(a, b EndpointStats) int {
		if a.RequestCount != b.RequestCount {
			return int(b.RequestCount - a.RequestCount)
		}
		if a.Endpoint < b.Endpoint {
			return -1
		}
		if a.Endpoint > b.Endpoint {
			return 1
		}
		return 0
	})
	return stats
}

// Middleware records every request under its chi route pattern.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		pm.RecordRequest(&RequestMetrics{
			Route:      route,
			Method:     r.Method,
			Duration:   duration,
			StatusCode: wrapper.statusCode,
			Timestamp:  start,
		})

		if pm.slowThreshold > 0 && duration > pm.slowThreshold {
			pm.logger.Warn().
				Str("request_id", logging.RequestIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("route", route).
				Int64("duration_ms", duration.Milliseconds()).
				Msg("Slow request detected")
		}
	})
}

// percentile calculates the percentile value from a sorted slice
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
