// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/middleware"
)

// HealthStatus is returned by the liveness and readiness probes.
type HealthStatus struct {
	Status  string  `json:"status"`
	Prepped bool    `json:"prepped"`
	Uptime  float64 `json:"uptime_seconds"`
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, HealthStatus{
		Status:  "alive",
		Prepped: h.engine.Prepped(),
		Uptime:  time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady reports 503 until the first profiling cycle has published.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Prepped() {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Profiler has not completed its first cycle", nil)
		return
	}
	h.respond(w, http.StatusOK, HealthStatus{
		Status:  "ready",
		Prepped: true,
		Uptime:  time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// Status returns engine state: readiness, last cycle, queue length and
// set sizes.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.engine.Status(), time.Now())
}

// HTTPStats returns per-route latency over the monitor's window.
func (h *Handler) HTTPStats(perf *middleware.PerformanceMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, http.StatusOK, perf.Stats(), time.Now())
	}
}
