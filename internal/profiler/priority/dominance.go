// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package priority

import (
	"github.com/tomtom215/marquee/internal/models"
)

// Relation exposes the user-edited "outranks" edges between Agents.
// The relation may contain cycles.
type Relation interface {
	// WeakerOf returns the IDs the Agent lists as weaker than itself.
	// Unknown IDs return nil.
	WeakerOf(id int64) []int64
}

// AgentSet is a Relation over a fixed set of Agents keyed by ID.
type AgentSet map[int64]*models.Agent

// NewAgentSet indexes agents by ID.
func NewAgentSet(agents []*models.Agent) AgentSet {
	set := make(AgentSet, len(agents))
	for _, a := range agents {
		set[a.ID] = a
	}
	return set
}

// WeakerOf implements Relation.
func (s AgentSet) WeakerOf(id int64) []int64 {
	if a, ok := s[id]; ok {
		return a.Weaker
	}
	return nil
}

// Reaches reports whether to is reachable from from by following weaker
// edges. Each call owns its visited set, so cycles terminate and
// concurrent callers never share traversal state.
func Reaches(rel Relation, from, to int64) bool {
	if from == to {
		return false
	}
	visited := map[int64]struct{}{from: {}}
	stack := []int64{from}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range rel.WeakerOf(curr) {
			if next == to {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return false
}

// Dominant returns the ID of whichever Agent outranks the other, directly
// or transitively. ok is false when neither does, or when each reaches the
// other through a cycle.
func Dominant(rel Relation, a, b int64) (winner int64, ok bool) {
	if a == b {
		return 0, false
	}
	aOverB := Reaches(rel, a, b)
	bOverA := Reaches(rel, b, a)
	switch {
	case aOverB && !bOverA:
		return a, true
	case bOverA && !aOverB:
		return b, true
	default:
		return 0, false
	}
}

// Resolve is Dominant over Agents. It returns nil when there is no
// decision.
func Resolve(rel Relation, a, b *models.Agent) *models.Agent {
	if a == nil || b == nil {
		return nil
	}
	id, ok := Dominant(rel, a.ID, b.ID)
	if !ok {
		return nil
	}
	if id == a.ID {
		return a
	}
	return b
}
