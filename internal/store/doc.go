// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package store persists shows, airings, agents, viewing history and
// recordings in BadgerDB.
//
// Records are CBOR-encoded with deterministic core encoding and keyed by
// a kind prefix plus the big-endian record ID, so every list operation
// returns records in ID order. Agent IDs come from a Badger sequence.
//
// Structural agent changes go through UpdateAgents, which holds the agent
// write lock for the duration of one read-write transaction. Inside it,
// AgentTx enforces rule uniqueness: adding a duplicate rule resolves to
// the existing agent and updating into a duplicate fails.
package store
