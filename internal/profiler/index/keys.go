// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package index

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/marquee/internal/models"
)

// Key identifies one lookup bucket.
type Key uint64

// Reserved is always part of every interest set. Airings without a title
// hash to it.
const Reserved Key = 0

// Dimension prefixes keep equal strings in different dimensions apart.
const (
	dimTitle    byte = 't'
	dimRun      byte = 'f'
	dimPerson   byte = 'p'
	dimCategory byte = 'c'
	dimChannel  byte = 'h'
	dimNetwork  byte = 'n'
	dimRated    byte = 'r'
	dimYear     byte = 'y'
	dimPR       byte = 'g'
)

var (
	firstRunKey = hashKey(dimRun, "first")
	reRunKey    = hashKey(dimRun, "rerun")
)

func hashKey(dim byte, value string) Key {
	d := xxhash.New()
	_, _ = d.Write([]byte{dim, 0})
	_, _ = d.WriteString(models.FoldKey(strings.TrimSpace(value)))
	k := Key(d.Sum64())
	if k == Reserved {
		k = 1
	}
	return k
}

// AiringKeys returns every bucket the airing belongs to.
func AiringKeys(a *models.Airing) []Key {
	keys := make([]Key, 0, 8)
	if title := a.Title(); title == "" {
		keys = append(keys, Reserved)
	} else {
		keys = append(keys, hashKey(dimTitle, title))
	}
	if a.FirstRun {
		keys = append(keys, firstRunKey)
	} else {
		keys = append(keys, reRunKey)
	}
	add := func(dim byte, v string) {
		if v != "" {
			keys = append(keys, hashKey(dim, v))
		}
	}
	add(dimChannel, a.Channel)
	add(dimNetwork, a.Network)
	add(dimPR, a.PR)
	if s := a.Show; s != nil {
		for _, c := range s.People {
			add(dimPerson, c.Name)
		}
		for _, c := range s.Categories {
			add(dimCategory, c)
		}
		add(dimRated, s.Rated)
		add(dimYear, s.Year)
	}
	return keys
}

// AgentKey returns the single bucket that holds every airing the agent can
// match. ok is false when the agent must scan: time-slot and keyword rules
// have no key, and neither do rules with no keyed dimension.
func AgentKey(a *models.Agent) (Key, bool) {
	if a.ForcesScan() {
		return 0, false
	}
	m := a.Mask
	switch {
	case m&models.MaskTitle != 0:
		return hashKey(dimTitle, a.Title), true
	case m&models.MaskPerson != 0:
		return hashKey(dimPerson, a.Person), true
	case m&models.MaskChannel != 0:
		return hashKey(dimChannel, a.Channel), true
	case m&models.MaskCategory != 0:
		return hashKey(dimCategory, a.Category), true
	case m&models.MaskSubCategory != 0:
		return hashKey(dimCategory, a.SubCategory), true
	case m&models.MaskNetwork != 0:
		return hashKey(dimNetwork, a.Network), true
	case m&models.MaskRated != 0:
		return hashKey(dimRated, a.Rated), true
	case m&models.MaskYear != 0:
		return hashKey(dimYear, a.Year), true
	case m&models.MaskPR != 0:
		return hashKey(dimPR, a.PR), true
	}
	switch m & (models.MaskFirstRun | models.MaskReRun) {
	case models.MaskFirstRun:
		return firstRunKey, true
	case models.MaskReRun:
		return reRunKey, true
	}
	return 0, false
}
