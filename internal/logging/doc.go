// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package logging provides centralized zerolog-based structured logging.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Int("agents", n).Msg("Profiler started")
//	logging.Error().Err(err).Msg("Cycle failed")
//
// # Components
//
// Long-lived components derive a child logger once:
//
//	log := logging.WithComponent("coordinator")
//
// # Cycle Correlation
//
// Every recompute cycle runs with a context carrying a short cycle ID.
// Ctx adds it (and the HTTP request ID, when present) to each entry:
//
//	ctx = logging.ContextWithCycleID(ctx, logging.NewCycleID())
//	logging.Ctx(ctx).Info().Msg("Cycle published")
//
// # Adapters
//
// SlogHandler feeds sutureslog; WatermillAdapter feeds the event bus.
//
// Always terminate log chains with .Msg() or .Send().
package logging
