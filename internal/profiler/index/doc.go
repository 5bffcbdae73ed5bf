// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package index builds demand-driven reverse indexes over airings.
//
// A cycle first asks every participating agent for its lookup key
// (NewInterest), then indexes each airing partition under only those keys
// (Build). Keys are xxhash digests of a dimension prefix and the
// lower-cased value. Time-slot and keyword agents have no key and always
// scan the partition.
package index
