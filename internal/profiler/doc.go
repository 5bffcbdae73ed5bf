// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package profiler decides how much each airing is wanted, which agent is
// credited for it, and which airings must be recorded.
//
// # Architecture
//
// The Engine runs one coordinator loop (Run). Producers submit jobs
// through the event methods (ReportWatch, AddDontLike, Kick, favorite
// management). On each wake-up the coordinator applies queued watch and
// waste jobs as trend learning, then runs one full recompute cycle:
//
//	load store -> partition by time window -> build interest indexes
//	  -> evaluator pool (errgroup) -> reconcile -> publish snapshot
//	  -> sync listeners -> kick scheduler
//
// Evaluators fold their results into per-collection locked maps. Nothing
// reads those until the pool has joined, and a preempted or failed cycle
// discards them entirely.
//
// # Snapshots
//
// Published state is an immutable Snapshot behind an atomic pointer.
// Queries never block and never fail; they read whatever snapshot is
// current. Incremental updates (favorite changes, identity swaps) copy the
// current snapshot, modify the copy and publish it under one lock.
//
// # Preemption
//
// After bootstrap, evaluators check the job queue before each agent. A
// pending love job stops the cycle at any time. Any other non-standard
// job stops it only while the cycle has run less than CycleCeiling; the
// ceiling keeps counting across cancelled cycles.
//
// # Usage
//
//	engine, err := profiler.NewEngine(cfg, st, logger)
//	if err != nil {
//	    return err
//	}
//	engine.SetScheduler(notifier)
//	go engine.Run(ctx)
//
//	p := engine.Probability(airingID)
package profiler
