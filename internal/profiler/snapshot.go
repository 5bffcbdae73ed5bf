// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"maps"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/models"
)

// IDSet is a set of airing IDs.
type IDSet map[int64]struct{}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids.
func (s IDSet) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Remove deletes ids.
func (s IDSet) Remove(ids ...int64) {
	for _, id := range ids {
		delete(s, id)
	}
}

// Snapshot is one published generation of derived profiling state.
// Snapshots are immutable once published; readers may hold them for as
// long as they like.
type Snapshot struct {
	Version     uint64
	PublishedAt time.Time

	Probability map[int64]float64
	Cause       map[int64]*models.Agent
	MustSee     IDSet
	Love        IDSet
	Pots        IDSet
	Blackballed IDSet
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Probability: make(map[int64]float64),
		Cause:       make(map[int64]*models.Agent),
		MustSee:     make(IDSet),
		Love:        make(IDSet),
		Pots:        make(IDSet),
		Blackballed: make(IDSet),
	}
}

// clone returns a mutable copy for building the next generation.
func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		Version:     s.Version,
		PublishedAt: s.PublishedAt,
		Probability: maps.Clone(s.Probability),
		Cause:       maps.Clone(s.Cause),
		MustSee:     maps.Clone(s.MustSee),
		Love:        maps.Clone(s.Love),
		Pots:        maps.Clone(s.Pots),
		Blackballed: maps.Clone(s.Blackballed),
	}
}

// swap moves every reference to oldID onto newID.
func (s *Snapshot) swap(oldID, newID int64) {
	moveSet := func(set IDSet) {
		if set.Has(oldID) {
			set.Remove(oldID)
			set.Add(newID)
		}
	}
	moveSet(s.MustSee)
	moveSet(s.Love)
	moveSet(s.Pots)
	moveSet(s.Blackballed)
	if p, ok := s.Probability[oldID]; ok {
		delete(s.Probability, oldID)
		s.Probability[newID] = p
	}
	if c, ok := s.Cause[oldID]; ok {
		delete(s.Cause, oldID)
		s.Cause[newID] = c
	}
}

// drop removes an airing from the scored structures. Love and
// Blackballed are left alone.
func (s *Snapshot) drop(id int64) {
	delete(s.Probability, id)
	delete(s.Cause, id)
	s.MustSee.Remove(id)
	s.Pots.Remove(id)
}

// syncSet is an IDSet guarded by its own mutex. Workers fold results into
// several of these concurrently.
type syncSet struct {
	mu  sync.Mutex
	set IDSet
}

func newSyncSet() *syncSet {
	return &syncSet{set: make(IDSet)}
}

func (s *syncSet) add(ids ...int64) {
	s.mu.Lock()
	s.set.Add(ids...)
	s.mu.Unlock()
}

func (s *syncSet) addAirings(airs []*models.Airing) {
	s.mu.Lock()
	for _, a := range airs {
		s.set[a.ID] = struct{}{}
	}
	s.mu.Unlock()
}
