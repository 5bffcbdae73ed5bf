// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - Compression: gzip for clients sending Accept-Encoding: gzip. Status
    codes that forbid a body (204, 304) pass through untouched.
  - PerformanceMonitor: sliding window of request latencies keyed by chi
    route pattern, with percentile stats and slow-request logging.

Request IDs and Prometheus instrumentation live in package api next to
the router, since they depend on its error envelope.

Usage:

	perf := middleware.NewPerformanceMonitor(1000, time.Second, logger)
	r.Use(perf.Middleware)
	r.Use(middleware.Compression)
	r.Get("/status/http", func(w http.ResponseWriter, r *http.Request) {
	    _ = json.NewEncoder(w).Encode(perf.Stats())
	})

Thread Safety:

PerformanceMonitor is safe for concurrent use. The gzip writers are
pooled and never shared between requests.
*/
package middleware
