// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
are exposed at /metrics by the API router.

# Available Metrics

Profiler Metrics:
  - profiler_cycle_duration_seconds: Recompute cycle duration (histogram)
    Labels: outcome (published, cancelled, failed)
  - profiler_cycles_total: Cycles by outcome (counter)
  - profiler_agents_evaluated_total: Agent evaluations (counter)
  - profiler_traitors_removed_total: Invalid agents removed (counter)
  - profiler_worker_pool_size: Evaluators in the current cycle (gauge)
  - profiler_bootstrap_progress_ratio: First-cycle progress (gauge)
  - profiler_snapshot_version: Published snapshot version (gauge)
  - profiler_snapshot_entries: Airings per published set (gauge)
    Labels: set (probability, pots, must_see, love, blackballed)
  - profiler_priority_budget_exhausted_total: Cyclic favorite orderings (counter)
  - profiler_jobs_submitted_total: Coordinator jobs (counter)
    Labels: kind
  - profiler_job_queue_depth: Pending coordinator jobs (gauge)

Store Metrics:
  - store_operation_duration_seconds: Badger operation latency (histogram)
    Labels: operation
  - store_operation_errors_total: Failed operations (counter)

Event Metrics:
  - events_consumed_total / events_published_total (counter)
    Labels: topic, result (ok, error)
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests

# Usage Example

	start := time.Now()
	err := db.Update(fn)
	metrics.RecordStoreOperation("put_agent", time.Since(start), err)

# Thread Safety

All metric operations are safe for concurrent use.
*/
package metrics
