// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package models defines the records shared by the store, the profiler and
the HTTP API.

Store records (CBOR-encoded by internal/store):

  - Show: program metadata shared by all of its airings
  - Airing: one broadcast occurrence, identity-stable until the EPG swaps it
  - Agent: a matching rule; a Favorite when MaskLove is set
  - Watched, Wasted: viewing history used for trend learning and scoring
  - MediaFile: a recording on disk

API types:

  - APIResponse, APIError, Metadata: the response envelope
  - AiringProfile, ProfilerStatus: read models over the published snapshot

Agent matching is a pure function of the Agent and the Airing (with its
Show resolved). Agents returned by the store are shared between
goroutines and must not be mutated; use Clone before editing.
*/
package models
