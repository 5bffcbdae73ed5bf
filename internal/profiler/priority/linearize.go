// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package priority

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/marquee/internal/models"
)

// ErrMoveBudget is returned alongside a best-effort order when the
// cascading moves of one insertion exceed N² steps. It only happens when
// the weaker relation contains a cycle.
var ErrMoveBudget = errors.New("priority order move budget exhausted")

// Linearize returns the favorites strongest first, consistent with the
// weaker relation.
//
// Favorites are inserted newest first. Each one lands directly below the
// lowest entry that outranks it, or at the front when nothing does. Any
// entry above it that it outranks is then moved directly below it, and the
// same check repeats for every moved entry.
func Linearize(favorites []*models.Agent) ([]*models.Agent, error) {
	sorted := make([]*models.Agent, 0, len(favorites))
	for _, f := range favorites {
		if f != nil {
			sorted = append(sorted, f)
		}
	}
	slices.SortStableFunc(sorted, byCreation)

	n := len(sorted)
	budget := n * n
	var cyclic []int64

	order := make([]*models.Agent, 0, n)
	for i := n - 1; i >= 0; i-- {
		insert := sorted[i]
		at := -1
		for j := len(order) - 1; j >= 0; j-- {
			if order[j].Outranks(insert.ID) {
				at = j + 1
				break
			}
		}
		if at < 0 {
			order = slices.Insert(order, 0, insert)
			continue
		}
		order = slices.Insert(order, at, insert)
		var ok bool
		if order, ok = cascade(order, insert, budget); !ok {
			cyclic = append(cyclic, insert.ID)
		}
	}

	if len(cyclic) > 0 {
		return order, fmt.Errorf("%w: inserting agents %v", ErrMoveBudget, cyclic)
	}
	return order, nil
}

// cascade moves entries above start that it outranks to directly below it,
// then repeats for each moved entry. It reports false when the budget ran
// out.
func cascade(order []*models.Agent, start *models.Agent, budget int) ([]*models.Agent, bool) {
	moves := 0
	work := []*models.Agent{start}
	for len(work) > 0 {
		curr := work[0]
		work = work[1:]
		pos := slices.Index(order, curr)
		for j := pos - 1; j >= 0; j-- {
			above := order[j]
			if !curr.Outranks(above.ID) {
				continue
			}
			if moves >= budget {
				return order, false
			}
			moves++
			order = slices.Delete(order, j, j+1)
			pos--
			order = slices.Insert(order, pos+1, above)
			work = append(work, above)
		}
	}
	return order, true
}

// Repair drops weaker IDs that no longer refer to a known Agent and
// re-applies every remaining edge, which removes direct reverse edges.
// Agents are visited in creation order, so of two Agents listing each
// other the older one keeps its edge. It returns the mutated copies.
func Repair(agents []*models.Agent) []*models.Agent {
	work := make(map[int64]*models.Agent, len(agents))
	ordered := make([]*models.Agent, 0, len(agents))
	for _, a := range agents {
		c := a.Clone()
		work[a.ID] = c
		ordered = append(ordered, c)
	}
	slices.SortStableFunc(ordered, byCreation)

	for _, a := range ordered {
		a.Weaker = slices.DeleteFunc(a.Weaker, func(id int64) bool {
			_, ok := work[id]
			return !ok || id == a.ID
		})
		for _, id := range slices.Clone(a.Weaker) {
			a.Bully(work[id])
		}
	}

	var changed []*models.Agent
	for _, orig := range agents {
		if !slices.Equal(orig.Weaker, work[orig.ID].Weaker) {
			changed = append(changed, work[orig.ID])
		}
	}
	return changed
}

func byCreation(a, b *models.Agent) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
