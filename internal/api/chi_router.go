// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marquee/internal/middleware"
)

// RouterConfig holds HTTP surface settings.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// SlowRequestThreshold logs API requests slower than this; zero
	// disables the log. PerformanceWindow is how many requests the
	// latency stats cover.
	SlowRequestThreshold time.Duration
	PerformanceWindow    int
}

// NewRouter builds the chi router for the profiling API.
//
// Health probes and /metrics sit outside the rate limiter; everything
// under /api/v1 is limited, instrumented and gzip-compressed.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	perf := middleware.NewPerformanceMonitor(cfg.PerformanceWindow, cfg.SlowRequestThreshold, h.logger)

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitDisabled))
		r.Use(PrometheusMetrics)
		r.Use(perf.Middleware)
		r.Use(middleware.Compression)

		r.Get("/status", h.Status)
		r.Get("/status/http", h.HTTPStats(perf))
		r.Post("/recompute", h.Recompute)

		r.Route("/airings", func(r chi.Router) {
			r.Get("/{id}", h.AiringProfile)
			r.Get("/{a}/conflict/{b}", h.AiringConflict)
			r.Get("/{a}/same-favorite/{b}", h.AiringSameFavorite)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.ListFavorites)
			r.Post("/", h.CreateFavorite)
			r.Post("/fix", h.FixPriorities)
			r.Put("/{id}", h.UpdateFavorite)
			r.Delete("/{id}", h.DeleteFavorite)
			r.Post("/{id}/enable", h.EnableFavorite(true))
			r.Post("/{id}/disable", h.EnableFavorite(false))
			r.Post("/{id}/priority", h.CreatePriority)
			r.Patch("/{id}/options", h.FavoriteOptions)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/watch", h.ReportWatch)
			r.Delete("/watch/{id}", h.ClearWatch)
			r.Post("/waste", h.ReportWaste)
			r.Delete("/waste/{id}", h.RemoveWaste)
			r.Post("/swap", h.SwapAiring)
		})
	})

	return r
}
