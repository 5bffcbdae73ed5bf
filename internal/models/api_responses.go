// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" with Data populated, or "error" with Error populated:
//
//	{
//	  "status": "success",
//	  "data": {"airing_id": 42, "probability": 1, "must_see": true},
//	  "metadata": {"timestamp": "2026-10-19T12:00:00Z", "snapshot_version": 7}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes when a response was produced and which published
// profiling snapshot it was read from.
type Metadata struct {
	Timestamp       time.Time `json:"timestamp"`
	QueryTimeMS     int64     `json:"query_time_ms,omitempty"`
	SnapshotVersion uint64    `json:"snapshot_version,omitempty"`
}

// APIError carries a machine-readable code and a human message.
//
// Codes in use: VALIDATION_ERROR, NOT_FOUND, INVALID_JSON, STORE_ERROR,
// ENGINE_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AiringProfile is the profiling view of a single Airing.
type AiringProfile struct {
	AiringID    int64   `json:"airing_id"`
	Probability float64 `json:"probability"`
	CauseID     int64   `json:"cause_id,omitempty"`
	Cause       string  `json:"cause,omitempty"`
	InPots      bool    `json:"in_pots"`
	MustSee     bool    `json:"must_see"`
	Loved       bool    `json:"loved"`
	Blackballed bool    `json:"blackballed"`
	DoNotDelete bool    `json:"do_not_delete"`
}

// ProfilerStatus summarizes engine state for operators.
type ProfilerStatus struct {
	Prepped        bool      `json:"prepped"`
	DoneInit       bool      `json:"done_init"`
	LastCycleAt    time.Time `json:"last_cycle_at,omitempty"`
	QueueLength    int       `json:"queue_length"`
	Version        uint64    `json:"snapshot_version"`
	PotsCount      int       `json:"pots"`
	MustSeeCount   int       `json:"must_see"`
	LoveCount      int       `json:"loves"`
	BlackballCount int       `json:"blackballed"`
	WatchCount     int64     `json:"watch_count"`
}
