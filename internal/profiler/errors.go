// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import "errors"

var (
	// ErrTraitor is returned by an Estimator for an agent that can no
	// longer be evaluated. The agent is removed after the cycle.
	ErrTraitor = errors.New("agent is no longer valid")

	// ErrStopped means the engine was shut down.
	ErrStopped = errors.New("profiler stopped")

	// ErrCycleCancelled means a recompute cycle was preempted or failed and
	// published nothing.
	ErrCycleCancelled = errors.New("recompute cycle cancelled")

	// ErrNotFavorite is returned when a favorite operation targets a trend.
	ErrNotFavorite = errors.New("agent is not a favorite")
)
