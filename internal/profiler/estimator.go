// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"fmt"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler/index"
)

// History is the viewing record agents are scored against during one
// cycle. It is read-only and shared by every evaluator.
type History struct {
	Watched      []*models.Airing
	WatchedIndex *index.Index
	Wasted       []*models.Airing
	WastedIndex  *index.Index
}

// Estimator computes the watch probability of an agent. A negative
// result makes the agent a negator for the cycle. Returning an error
// wrapping ErrTraitor removes the agent from the store after the cycle.
//
// Implementations are called concurrently from every evaluator.
type Estimator interface {
	Estimate(a *models.Agent, h *History) (float64, error)
}

// trendCeiling keeps learned trends strictly below favorites.
const trendCeiling = 0.9

// TrendEstimator scores favorites at 1 and learned trends by how often
// their matches were watched rather than marked as wasted.
type TrendEstimator struct{}

// Estimate implements Estimator.
func (TrendEstimator) Estimate(a *models.Agent, h *History) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTraitor, err)
	}
	switch {
	case a.IsNegator():
		return -1, nil
	case a.IsFavorite():
		return 1, nil
	}

	watched := float64(len(index.Related(a, h.Watched, h.WatchedIndex)))
	wasted := float64(len(index.Related(a, h.Wasted, h.WastedIndex)))
	if watched+wasted == 0 {
		return 0, nil
	}
	if wasted > watched {
		return -(wasted - watched) / (wasted + watched), nil
	}
	return trendCeiling * watched / (watched + wasted + 1), nil
}
