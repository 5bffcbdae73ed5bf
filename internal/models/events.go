// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

import "time"

// WatchEvent reports that an airing was viewed, or with Clear set, that
// a viewing mark was withdrawn.
type WatchEvent struct {
	AiringID  int64 `json:"airing_id" validate:"required,gt=0"`
	Confirmed bool  `json:"confirmed"`
	Complete  bool  `json:"complete"`
	Clear     bool  `json:"clear,omitempty"`
}

// WasteEvent marks an airing as not liked, or with Remove set, takes the
// mark back.
type WasteEvent struct {
	AiringID int64 `json:"airing_id" validate:"required,gt=0"`
	Manual   bool  `json:"manual"`
	Remove   bool  `json:"remove,omitempty"`
}

// SwapEvent reports that a guide update replaced one airing with another.
type SwapEvent struct {
	OldAiringID int64 `json:"old_airing_id" validate:"required,gt=0"`
	NewAiringID int64 `json:"new_airing_id" validate:"required,gt=0,nefield=OldAiringID"`
}

// RecomputeEvent requests a full profiling cycle.
type RecomputeEvent struct {
	Required bool `json:"required"`
}

// CatalogEvent carries guide and recording upserts.
type CatalogEvent struct {
	Shows      []*Show      `json:"shows,omitempty" validate:"dive,required"`
	Airings    []*Airing    `json:"airings,omitempty" validate:"dive,required"`
	MediaFiles []*MediaFile `json:"media_files,omitempty" validate:"dive,required"`
}

// Empty reports whether the event carries no records.
func (c *CatalogEvent) Empty() bool {
	return len(c.Shows) == 0 && len(c.Airings) == 0 && len(c.MediaFiles) == 0
}

// SyncNotification is one step of a listener sync round. Only the field
// matching Kind is populated. Causes map airing IDs to agent IDs.
type SyncNotification struct {
	Kind        string            `json:"kind"`
	Version     uint64            `json:"version"`
	PublishedAt time.Time         `json:"published_at"`
	Love        []int64           `json:"love,omitempty"`
	Probability map[int64]float64 `json:"probability,omitempty"`
	Cause       map[int64]int64   `json:"cause,omitempty"`
	MustSee     []int64           `json:"must_see,omitempty"`
}

// SchedulerKick asks the recording scheduler to re-run.
type SchedulerKick struct {
	Required    bool      `json:"required"`
	RequestedAt time.Time `json:"requested_at"`
}
