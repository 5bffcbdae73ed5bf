// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes used as the "outcome" label.
const (
	OutcomePublished = "published"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

var (
	// Profiling cycle metrics
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profiler_cycle_duration_seconds",
			Help:    "Duration of full recompute cycles in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 1800},
		},
		[]string{"outcome"},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profiler_cycles_total",
			Help: "Total number of recompute cycles by outcome",
		},
		[]string{"outcome"},
	)

	AgentsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profiler_agents_evaluated_total",
			Help: "Total number of agent evaluations performed by workers",
		},
	)

	TraitorsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profiler_traitors_removed_total",
			Help: "Total number of invalid agents removed after a cycle",
		},
	)

	WorkerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiler_worker_pool_size",
			Help: "Number of agent evaluators used by the current cycle",
		},
	)

	BootstrapProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiler_bootstrap_progress_ratio",
			Help: "Fraction of agents consumed during the first cycle",
		},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiler_snapshot_version",
			Help: "Version of the currently published profiling snapshot",
		},
	)

	SnapshotEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "profiler_snapshot_entries",
			Help: "Number of airings in each published structure",
		},
		[]string{"set"}, // "probability", "pots", "must_see", "love", "blackballed"
	)

	PriorityBudgetExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profiler_priority_budget_exhausted_total",
			Help: "Times favorite ordering stopped early on a cyclic priority relation",
		},
	)

	// Job coordinator metrics
	JobsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profiler_jobs_submitted_total",
			Help: "Total number of coordinator jobs by kind",
		},
		[]string{"kind"},
	)

	JobQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiler_job_queue_depth",
			Help: "Current number of pending coordinator jobs",
		},
	)

	// Store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of object store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed object store operations",
		},
		[]string{"operation"},
	)

	// Event bus metrics
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of intake messages handled by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of notification messages published by topic and result",
		},
		[]string{"topic", "result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordCycle records the end of a recompute cycle.
func RecordCycle(outcome string, duration time.Duration) {
	CycleDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	CyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordJob records a job submitted to the coordinator.
func RecordJob(kind string) {
	JobsSubmitted.WithLabelValues(kind).Inc()
}

// SetQueueDepth updates the pending job gauge.
func SetQueueDepth(n int) {
	JobQueueDepth.Set(float64(n))
}

// RecordSnapshot updates the published snapshot gauges.
func RecordSnapshot(version uint64, probability, pots, mustSee, love, blackballed int) {
	SnapshotVersion.Set(float64(version))
	SnapshotEntries.WithLabelValues("probability").Set(float64(probability))
	SnapshotEntries.WithLabelValues("pots").Set(float64(pots))
	SnapshotEntries.WithLabelValues("must_see").Set(float64(mustSee))
	SnapshotEntries.WithLabelValues("love").Set(float64(love))
	SnapshotEntries.WithLabelValues("blackballed").Set(float64(blackballed))
}

// RecordStoreOperation records an object store operation
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation).Inc()
	}
}

// RecordEventConsumed records an intake message.
func RecordEventConsumed(topic string, err error) {
	EventsConsumed.WithLabelValues(topic, result(err)).Inc()
}

// RecordEventPublished records a notification publish attempt.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, result(err)).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
