// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

import (
	"strings"
	"time"
)

// MediaKind classifies the content a Show describes.
type MediaKind uint8

const (
	KindTV MediaKind = iota
	KindMovie
	KindMusic
	KindVideo
)

// String returns the lower-case name of the kind.
func (k MediaKind) String() string {
	switch k {
	case KindTV:
		return "tv"
	case KindMovie:
		return "movie"
	case KindMusic:
		return "music"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Credit is one person attached to a Show.
type Credit struct {
	Name string `cbor:"1,keyasint" json:"name"`
	Role string `cbor:"2,keyasint,omitempty" json:"role,omitempty"`
}

// Show is the program description shared by every Airing of it.
type Show struct {
	ID          int64     `cbor:"1,keyasint" json:"id"`
	Title       string    `cbor:"2,keyasint" json:"title"`
	ExternalID  string    `cbor:"3,keyasint,omitempty" json:"external_id,omitempty"`
	Kind        MediaKind `cbor:"4,keyasint" json:"kind"`
	Categories  []string  `cbor:"5,keyasint,omitempty" json:"categories,omitempty"`
	People      []Credit  `cbor:"6,keyasint,omitempty" json:"people,omitempty"`
	Rated       string    `cbor:"7,keyasint,omitempty" json:"rated,omitempty"`
	Year        string    `cbor:"8,keyasint,omitempty" json:"year,omitempty"`
	Description string    `cbor:"9,keyasint,omitempty" json:"description,omitempty"`
	DontLike    bool      `cbor:"10,keyasint,omitempty" json:"dont_like,omitempty"`
}

// Category returns the primary category, or "" when the show has none.
func (s *Show) Category() string {
	if len(s.Categories) == 0 {
		return ""
	}
	return s.Categories[0]
}

// SubCategory returns the secondary category, or "".
func (s *Show) SubCategory() string {
	if len(s.Categories) < 2 {
		return ""
	}
	return s.Categories[1]
}

// Airing is one broadcast occurrence of a Show on a station.
//
// Airings are owned by the store. The profiler classifies them but never
// creates or deletes them. Show is resolved by the store on load and is
// not persisted with the Airing.
type Airing struct {
	ID        int64         `cbor:"1,keyasint" json:"id"`
	ShowID    int64         `cbor:"2,keyasint" json:"show_id"`
	StationID int64         `cbor:"3,keyasint,omitempty" json:"station_id,omitempty"`
	Channel   string        `cbor:"4,keyasint,omitempty" json:"channel,omitempty"`
	Network   string        `cbor:"5,keyasint,omitempty" json:"network,omitempty"`
	Start     time.Time     `cbor:"6,keyasint" json:"start"`
	Duration  time.Duration `cbor:"7,keyasint" json:"duration"`
	FirstRun  bool          `cbor:"8,keyasint,omitempty" json:"first_run,omitempty"`
	PR        string        `cbor:"9,keyasint,omitempty" json:"parental_rating,omitempty"`

	Show *Show `cbor:"-" json:"show,omitempty"`
}

// End returns the time the airing finishes.
func (a *Airing) End() time.Time {
	return a.Start.Add(a.Duration)
}

// Title returns the show title, or "" when the show is unknown.
func (a *Airing) Title() string {
	if a.Show == nil {
		return ""
	}
	return a.Show.Title
}

// IsTV reports whether the airing carries television content. Movies
// broadcast on a channel count as television.
func (a *Airing) IsTV() bool {
	return a.Show != nil && (a.Show.Kind == KindTV || a.Show.Kind == KindMovie)
}

// IsMovie reports whether the airing is a feature film.
func (a *Airing) IsMovie() bool {
	if a.Show == nil {
		return false
	}
	return a.Show.Kind == KindMovie || strings.HasPrefix(a.Show.ExternalID, "MV")
}

// HasStation reports whether the airing is tied to a broadcast station.
func (a *Airing) HasStation() bool {
	return a.StationID != 0
}

// Watched records a viewing of an Airing.
type Watched struct {
	AiringID  int64     `cbor:"1,keyasint" json:"airing_id"`
	ShowID    int64     `cbor:"2,keyasint" json:"show_id"`
	WatchedAt time.Time `cbor:"3,keyasint" json:"watched_at"`
	// Complete is set once the viewer has seen enough of the airing to
	// count it as fully watched.
	Complete bool `cbor:"4,keyasint,omitempty" json:"complete"`
}

// Wasted records an explicit "don't like" mark on an Airing.
type Wasted struct {
	AiringID  int64     `cbor:"1,keyasint" json:"airing_id"`
	Manual    bool      `cbor:"2,keyasint,omitempty" json:"manual"`
	CreatedAt time.Time `cbor:"3,keyasint" json:"created_at"`
}

// MediaFile is a recording on disk for an Airing.
type MediaFile struct {
	ID       int64 `cbor:"1,keyasint" json:"id"`
	AiringID int64 `cbor:"2,keyasint" json:"airing_id"`
	// Complete is false while the recording is still in progress.
	Complete bool `cbor:"3,keyasint,omitempty" json:"complete"`
	Archived bool `cbor:"4,keyasint,omitempty" json:"archived,omitempty"`
	TV       bool `cbor:"5,keyasint,omitempty" json:"tv"`
}
