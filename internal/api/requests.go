// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"strings"
	"time"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler"
)

// FavoriteRequest describes a favorite rule. Each non-empty field becomes
// an active match dimension. FirstRun and ReRun select airing freshness.
type FavoriteRequest struct {
	Title       string `json:"title" validate:"omitempty,max=255"`
	FirstRun    bool   `json:"first_run"`
	ReRun       bool   `json:"rerun"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	SubCategory string `json:"sub_category" validate:"omitempty,max=100"`
	Person      string `json:"person" validate:"omitempty,max=255"`
	Role        string `json:"role" validate:"omitempty,max=100"`
	Rated       string `json:"rated" validate:"omitempty,max=20"`
	Year        string `json:"year" validate:"omitempty,max=10"`
	PR          string `json:"parental_rating" validate:"omitempty,max=20"`
	Channel     string `json:"channel" validate:"omitempty,max=100"`
	Network     string `json:"network" validate:"omitempty,max=100"`
	Keyword     string `json:"keyword" validate:"omitempty,max=255"`
	Timeslots   []int  `json:"timeslots" validate:"omitempty,max=168,dive,hourofweek"`

	// Creation-time options; ignored by updates.
	StartPadSeconds    int  `json:"start_pad_seconds" validate:"gte=0,lte=86400"`
	StopPadSeconds     int  `json:"stop_pad_seconds" validate:"gte=0,lte=86400"`
	KeepAtMost         int  `json:"keep_at_most" validate:"gte=0,lte=1000"`
	DontAutodelete     bool `json:"dont_autodelete"`
	DeleteAfterConvert bool `json:"delete_after_convert"`
}

// Agent builds the favorite spec handed to the engine.
func (r *FavoriteRequest) Agent() *models.Agent {
	a := &models.Agent{
		Title:       strings.TrimSpace(r.Title),
		Category:    strings.TrimSpace(r.Category),
		SubCategory: strings.TrimSpace(r.SubCategory),
		Person:      strings.TrimSpace(r.Person),
		Role:        strings.TrimSpace(r.Role),
		Rated:       strings.TrimSpace(r.Rated),
		Year:        strings.TrimSpace(r.Year),
		PR:          strings.TrimSpace(r.PR),
		Channel:     strings.TrimSpace(r.Channel),
		Network:     strings.TrimSpace(r.Network),
		Keyword:     strings.TrimSpace(r.Keyword),
		Timeslots:   r.Timeslots,
		KeepAtMost:  r.KeepAtMost,
		StartPad:    time.Duration(r.StartPadSeconds) * time.Second,
		StopPad:     time.Duration(r.StopPadSeconds) * time.Second,
	}

	dims := []struct {
		bit models.Mask
		set bool
	}{
		{models.MaskTitle, a.Title != ""},
		{models.MaskFirstRun, r.FirstRun},
		{models.MaskReRun, r.ReRun},
		{models.MaskCategory, a.Category != ""},
		{models.MaskSubCategory, a.SubCategory != ""},
		{models.MaskPerson, a.Person != ""},
		{models.MaskRated, a.Rated != ""},
		{models.MaskYear, a.Year != ""},
		{models.MaskPR, a.PR != ""},
		{models.MaskChannel, a.Channel != ""},
		{models.MaskNetwork, a.Network != ""},
		{models.MaskTimeslot, len(a.Timeslots) > 0},
		{models.MaskKeyword, a.Keyword != ""},
	}
	for _, d := range dims {
		if d.set {
			a.Mask |= d.bit
		}
	}
	if r.DontAutodelete {
		a.Flags |= models.FlagDontAutodelete
	}
	if r.DeleteAfterConvert {
		a.Flags |= models.FlagDeleteAfterConvert
	}
	return a
}

// FavoriteOptionsRequest edits non-rule settings. Absent fields are left
// unchanged.
type FavoriteOptionsRequest struct {
	StartPadSeconds    *int  `json:"start_pad_seconds" validate:"omitempty,gte=0,lte=86400"`
	StopPadSeconds     *int  `json:"stop_pad_seconds" validate:"omitempty,gte=0,lte=86400"`
	KeepAtMost         *int  `json:"keep_at_most" validate:"omitempty,gte=0,lte=1000"`
	DontAutodelete     *bool `json:"dont_autodelete"`
	DeleteAfterConvert *bool `json:"delete_after_convert"`
}

// Options converts the request to engine options.
func (r *FavoriteOptionsRequest) Options() profiler.FavoriteOptions {
	opts := profiler.FavoriteOptions{
		KeepAtMost:         r.KeepAtMost,
		DontAutodelete:     r.DontAutodelete,
		DeleteAfterConvert: r.DeleteAfterConvert,
	}
	if r.StartPadSeconds != nil {
		d := time.Duration(*r.StartPadSeconds) * time.Second
		opts.StartPad = &d
	}
	if r.StopPadSeconds != nil {
		d := time.Duration(*r.StopPadSeconds) * time.Second
		opts.StopPad = &d
	}
	return opts
}

// PriorityRequest names the favorite to place below the path favorite.
type PriorityRequest struct {
	BottomID int64 `json:"bottom_id" validate:"required,gt=0"`
}

// RecomputeRequest asks for a cycle. Required forces a full recompute
// even when the engine would otherwise skip it.
type RecomputeRequest struct {
	Required bool `json:"required"`
}
