// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package priority resolves precedence between Agents.
//
// Users order their favorites by telling the engine that one outranks
// another. Those edits form a directed "weaker" relation that is allowed
// to be inconsistent: it may contain cycles. Every function here
// terminates on such input. Dominant answers "no decision" for pairs
// caught in a cycle, and Linearize stops cascading after N² moves and
// returns ErrMoveBudget with a best-effort order.
package priority
