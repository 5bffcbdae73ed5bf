// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package index

import (
	"cmp"
	"slices"

	"github.com/tomtom215/marquee/internal/models"
)

// Interest is the set of keys some agent of a cycle could look up.
type Interest map[Key]struct{}

// NewInterest collects the keys the agents need. Reserved is always
// included.
func NewInterest(agents []*models.Agent) Interest {
	in := Interest{Reserved: {}}
	for _, a := range agents {
		if k, ok := AgentKey(a); ok {
			in[k] = struct{}{}
		}
	}
	return in
}

// Has reports whether k is part of the interest set.
func (in Interest) Has(k Key) bool {
	_, ok := in[k]
	return ok
}

// Index is a frozen reverse index from Key to airings. Buckets are sorted
// by airing ID and hold each airing once. It is safe for concurrent reads.
type Index struct {
	interest Interest
	buckets  map[Key][]*models.Airing
}

// Build indexes airings under the keys in interest. Keys outside the
// interest set are never materialized.
func Build(interest Interest, airings []*models.Airing) *Index {
	buckets := make(map[Key][]*models.Airing, len(interest))
	for _, a := range airings {
		for _, k := range AiringKeys(a) {
			if !interest.Has(k) {
				continue
			}
			buckets[k] = append(buckets[k], a)
		}
	}
	for k, b := range buckets {
		slices.SortFunc(b, byID)
		b = slices.CompactFunc(b, func(x, y *models.Airing) bool { return x.ID == y.ID })
		buckets[k] = slices.Clip(b)
	}
	return &Index{interest: interest, buckets: buckets}
}

// Lookup returns the bucket for k. ok is false when k was not part of the
// interest set, in which case the caller must scan.
func (idx *Index) Lookup(k Key) (airings []*models.Airing, ok bool) {
	if idx == nil || !idx.interest.Has(k) {
		return nil, false
	}
	return idx.buckets[k], true
}

// Buckets returns the number of materialized buckets.
func (idx *Index) Buckets() int {
	if idx == nil {
		return 0
	}
	return len(idx.buckets)
}

// Related returns the airings in all that the agent matches, narrowed by
// idx when the agent has a key. idx may be nil for linear scan mode. The
// result is in airing ID order when idx is used, and in the order of all
// otherwise.
func Related(a *models.Agent, all []*models.Airing, idx *Index) []*models.Airing {
	candidates := all
	if k, ok := AgentKey(a); ok {
		if bucket, ok := idx.Lookup(k); ok {
			candidates = bucket
		}
	}
	var out []*models.Airing
	for _, air := range candidates {
		if a.Matches(air) {
			out = append(out, air)
		}
	}
	return out
}

func byID(a, b *models.Airing) int {
	return cmp.Compare(a.ID, b.ID)
}
