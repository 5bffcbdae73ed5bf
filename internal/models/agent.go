// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Mask selects which match dimensions of an Agent are active.
type Mask uint32

const (
	MaskTitle Mask = 1 << iota
	MaskFirstRun
	MaskReRun
	MaskCategory
	MaskSubCategory
	MaskPerson
	MaskRated
	MaskYear
	MaskPR
	MaskChannel
	MaskNetwork
	MaskTimeslot
	MaskKeyword

	// MaskLove marks a user-created Favorite.
	MaskLove
	// MaskDontLike marks a negative rule. Its matches are blackballed.
	MaskDontLike
)

// matchDimensions is every mask bit that constrains matching.
const matchDimensions = MaskTitle | MaskFirstRun | MaskReRun | MaskCategory | MaskSubCategory |
	MaskPerson | MaskRated | MaskYear | MaskPR | MaskChannel | MaskNetwork | MaskTimeslot | MaskKeyword

// Flag is a behavioral switch on an Agent.
type Flag uint32

const (
	FlagDisabled Flag = 1 << iota
	FlagDontAutodelete
	FlagDeleteAfterConvert
)

// ErrInvalidAgent is returned by Agent.Validate.
var ErrInvalidAgent = errors.New("invalid agent")

// Agent is a matching rule over Airings. A Favorite is an Agent with
// MaskLove set; every other Agent is an auto-learned trend.
//
// Agents loaded from the store are shared read-only. Mutations go through
// Clone and the store's agent transaction.
type Agent struct {
	ID    int64 `cbor:"1,keyasint" json:"id"`
	Mask  Mask  `cbor:"2,keyasint" json:"mask"`
	Flags Flag  `cbor:"3,keyasint,omitempty" json:"flags,omitempty"`

	Title       string `cbor:"4,keyasint,omitempty" json:"title,omitempty"`
	Category    string `cbor:"5,keyasint,omitempty" json:"category,omitempty"`
	SubCategory string `cbor:"6,keyasint,omitempty" json:"sub_category,omitempty"`
	Person      string `cbor:"7,keyasint,omitempty" json:"person,omitempty"`
	Role        string `cbor:"8,keyasint,omitempty" json:"role,omitempty"`
	Rated       string `cbor:"9,keyasint,omitempty" json:"rated,omitempty"`
	Year        string `cbor:"10,keyasint,omitempty" json:"year,omitempty"`
	PR          string `cbor:"11,keyasint,omitempty" json:"parental_rating,omitempty"`
	Channel     string `cbor:"12,keyasint,omitempty" json:"channel,omitempty"`
	Network     string `cbor:"13,keyasint,omitempty" json:"network,omitempty"`
	Keyword     string `cbor:"14,keyasint,omitempty" json:"keyword,omitempty"`
	// Timeslots are hours of the week (weekday*24 + hour) in local time.
	Timeslots []int `cbor:"15,keyasint,omitempty" json:"timeslots,omitempty"`

	KeepAtMost int           `cbor:"16,keyasint,omitempty" json:"keep_at_most,omitempty"`
	StartPad   time.Duration `cbor:"17,keyasint,omitempty" json:"start_pad,omitempty"`
	StopPad    time.Duration `cbor:"18,keyasint,omitempty" json:"stop_pad,omitempty"`
	CreatedAt  time.Time     `cbor:"19,keyasint" json:"created_at"`

	// Weaker lists the IDs of Agents this Agent outranks.
	Weaker []int64 `cbor:"20,keyasint,omitempty" json:"weaker,omitempty"`
}

// IsFavorite reports whether the Agent was created by the user.
func (a *Agent) IsFavorite() bool { return a.Mask&MaskLove != 0 }

// IsNegator reports whether the Agent is a negative rule.
func (a *Agent) IsNegator() bool { return a.Mask&MaskDontLike != 0 }

// Enabled reports whether the Agent takes part in profiling.
func (a *Agent) Enabled() bool { return a.Flags&FlagDisabled == 0 }

// Has reports whether all of the given flags are set.
func (a *Agent) Has(f Flag) bool { return a.Flags&f == f }

// Capped reports whether the Agent limits retained recordings with
// manual deletion.
func (a *Agent) Capped() bool {
	return a.Has(FlagDontAutodelete) && a.KeepAtMost > 0
}

// Clone returns a deep copy safe for mutation.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Timeslots = slices.Clone(a.Timeslots)
	c.Weaker = slices.Clone(a.Weaker)
	return &c
}

// Outranks reports whether id is listed directly as weaker.
func (a *Agent) Outranks(id int64) bool {
	return slices.Contains(a.Weaker, id)
}

// Bully makes a outrank b. Any reverse edge from b to a is dropped.
// Both Agents must be mutable copies.
func (a *Agent) Bully(b *Agent) {
	if a.ID == b.ID {
		return
	}
	if !a.Outranks(b.ID) {
		a.Weaker = append(a.Weaker, b.ID)
	}
	b.Weaker = slices.DeleteFunc(b.Weaker, func(id int64) bool { return id == a.ID })
}

// Validate checks that every active dimension has a value to match.
func (a *Agent) Validate() error {
	if a.Mask&matchDimensions == 0 {
		return fmt.Errorf("%w: agent %d has no match dimension", ErrInvalidAgent, a.ID)
	}
	checks := []struct {
		bit   Mask
		value string
		name  string
	}{
		{MaskTitle, a.Title, "title"},
		{MaskCategory, a.Category, "category"},
		{MaskSubCategory, a.SubCategory, "sub_category"},
		{MaskPerson, a.Person, "person"},
		{MaskRated, a.Rated, "rated"},
		{MaskYear, a.Year, "year"},
		{MaskPR, a.PR, "parental_rating"},
		{MaskChannel, a.Channel, "channel"},
		{MaskNetwork, a.Network, "network"},
		{MaskKeyword, a.Keyword, "keyword"},
	}
	for _, c := range checks {
		if a.Mask&c.bit != 0 && strings.TrimSpace(c.value) == "" {
			return fmt.Errorf("%w: agent %d has empty %s", ErrInvalidAgent, a.ID, c.name)
		}
	}
	if a.Mask&MaskTimeslot != 0 && len(a.Timeslots) == 0 {
		return fmt.Errorf("%w: agent %d has no timeslots", ErrInvalidAgent, a.ID)
	}
	return nil
}

// ForcesScan reports whether the Agent matches on dimensions that have no
// index key.
func (a *Agent) ForcesScan() bool {
	return a.Mask&(MaskTimeslot|MaskKeyword) != 0
}

// Matches reports whether the airing satisfies every active dimension.
func (a *Agent) Matches(air *Airing) bool {
	show := air.Show
	if show == nil {
		return false
	}
	m := a.Mask
	if m&MaskTitle != 0 && !strings.EqualFold(show.Title, a.Title) {
		return false
	}
	switch m & (MaskFirstRun | MaskReRun) {
	case MaskFirstRun:
		if !air.FirstRun {
			return false
		}
	case MaskReRun:
		if air.FirstRun {
			return false
		}
	}
	if m&MaskCategory != 0 && !containsFold(show.Categories, a.Category) {
		return false
	}
	if m&MaskSubCategory != 0 && !strings.EqualFold(show.SubCategory(), a.SubCategory) {
		return false
	}
	if m&MaskPerson != 0 && !a.matchesPerson(show) {
		return false
	}
	if m&MaskRated != 0 && !strings.EqualFold(show.Rated, a.Rated) {
		return false
	}
	if m&MaskYear != 0 && show.Year != a.Year {
		return false
	}
	if m&MaskPR != 0 && !strings.EqualFold(air.PR, a.PR) {
		return false
	}
	if m&MaskChannel != 0 && !strings.EqualFold(air.Channel, a.Channel) {
		return false
	}
	if m&MaskNetwork != 0 && !strings.EqualFold(air.Network, a.Network) {
		return false
	}
	if m&MaskTimeslot != 0 && !slices.Contains(a.Timeslots, HourOfWeek(air.Start)) {
		return false
	}
	if m&MaskKeyword != 0 && !a.matchesKeyword(show) {
		return false
	}
	return true
}

func (a *Agent) matchesPerson(show *Show) bool {
	for _, c := range show.People {
		if !strings.EqualFold(c.Name, a.Person) {
			continue
		}
		if a.Role == "" || strings.EqualFold(c.Role, a.Role) {
			return true
		}
	}
	return false
}

func (a *Agent) matchesKeyword(show *Show) bool {
	kw := strings.ToLower(a.Keyword)
	if strings.Contains(strings.ToLower(show.Title), kw) ||
		strings.Contains(strings.ToLower(show.Description), kw) {
		return true
	}
	for _, c := range show.People {
		if strings.Contains(strings.ToLower(c.Name), kw) {
			return true
		}
	}
	return false
}

// RuleKey returns the uniqueness tuple of the Agent: two Agents with the
// same key describe the same rule.
func (a *Agent) RuleKey() string {
	slots := make([]string, len(a.Timeslots))
	sorted := slices.Clone(a.Timeslots)
	slices.Sort(sorted)
	for i, s := range sorted {
		slots[i] = strconv.Itoa(s)
	}
	return strings.Join([]string{
		strconv.FormatUint(uint64(a.Mask), 16),
		strings.ToLower(a.Title),
		strings.ToLower(a.Category),
		strings.ToLower(a.SubCategory),
		strings.ToLower(a.Person),
		strings.ToLower(a.Role),
		strings.ToLower(a.Rated),
		strings.ToLower(a.PR),
		strings.ToLower(a.Network),
		a.Year,
		strings.Join(slots, ","),
		strings.ToLower(a.Channel),
		strings.ToLower(a.Keyword),
	}, "\x1f")
}

// Describe returns a short human-readable label for logs.
func (a *Agent) Describe() string {
	var parts []string
	add := func(bit Mask, label, value string) {
		if a.Mask&bit != 0 {
			parts = append(parts, label+"="+value)
		}
	}
	add(MaskTitle, "title", a.Title)
	add(MaskCategory, "category", a.Category)
	add(MaskPerson, "person", a.Person)
	add(MaskChannel, "channel", a.Channel)
	add(MaskNetwork, "network", a.Network)
	add(MaskPR, "pr", a.PR)
	add(MaskKeyword, "keyword", a.Keyword)
	if a.Mask&MaskFirstRun != 0 && a.Mask&MaskReRun == 0 {
		parts = append(parts, "first_run")
	}
	if a.Mask&MaskReRun != 0 && a.Mask&MaskFirstRun == 0 {
		parts = append(parts, "rerun")
	}
	if len(parts) == 0 {
		return "agent#" + strconv.FormatInt(a.ID, 10)
	}
	return strings.Join(parts, " ")
}

// HourOfWeek returns weekday*24 + hour of t in local time.
func HourOfWeek(t time.Time) int {
	t = t.Local()
	return int(t.Weekday())*24 + t.Hour()
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// FoldKey maps s to a canonical form under simple Unicode case folding.
// FoldKey(a) == FoldKey(b) exactly when strings.EqualFold(a, b).
func FoldKey(s string) string {
	return strings.Map(foldRune, s)
}

// foldRune returns the smallest rune in r's case-fold orbit.
func foldRune(r rune) rune {
	lo := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lo {
			lo = f
		}
	}
	return lo
}
