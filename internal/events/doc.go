// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package events connects the profiling engine to the rest of the PVR
// over a Watermill message bus.
//
// The bus is either an in-process Go channel pub/sub or NATS. With
// events.nats_enabled the engine connects to an external NATS server,
// optionally with a JetStream stream covering every topic under the
// configured prefix for durable delivery.
//
//	  guide / player / UI                          recording scheduler
//	          │                                            ▲
//	          ▼                                            │
//	  <prefix>.watch         ┌────────┐  Listener   <prefix>.sync.*
//	  <prefix>.waste   ────► │ Intake │ ──► Engine ──► Notifier
//	  <prefix>.swap          └────────┘             <prefix>.scheduler.kick
//	  <prefix>.recompute
//	  <prefix>.catalog
//
// # Intake
//
// Router subscribes to the intake topics and hands each payload to an
// Intake, which decodes JSON, validates it and calls the engine.
// Malformed payloads and unknown airings are acknowledged and dropped;
// other failures are retried with exponential backoff.
//
// # Notifications
//
// Notifier implements profiler.Listener and profiler.Scheduler. Each
// sync step is one message stamped with the snapshot version. Publishes
// run through a circuit breaker; a failed publish ends the listener's
// sync round, which the engine repeats after the next cycle.
package events
