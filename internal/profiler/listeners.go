// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"github.com/tomtom215/marquee/internal/models"
)

// Listener receives derived state after every publication. The maps and
// sets are shared with the published snapshot and must not be modified.
// Returning false ends the current round for that listener.
type Listener interface {
	UpdateLoves(love IDSet) bool
	UpdateProbabilities(prob map[int64]float64) bool
	UpdateCauses(cause map[int64]*models.Agent) bool
	UpdateMustSees(mustSee IDSet) bool
}

// AddListener registers a listener.
func (e *Engine) AddListener(l Listener) {
	e.listenerMu.Lock()
	e.listeners = append(e.listeners, l)
	e.listenerMu.Unlock()
}

// RemoveListener unregisters a listener.
func (e *Engine) RemoveListener(l Listener) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	for i, have := range e.listeners {
		if have == l {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

func (e *Engine) listenersCopy() []Listener {
	e.listenerMu.RLock()
	defer e.listenerMu.RUnlock()
	return append([]Listener(nil), e.listeners...)
}

// syncListeners sends love, probabilities, causes and must-sees to every
// listener in that order.
func (e *Engine) syncListeners(snap *Snapshot) {
	for _, l := range e.listenersCopy() {
		_ = l.UpdateLoves(snap.Love) &&
			l.UpdateProbabilities(snap.Probability) &&
			l.UpdateCauses(snap.Cause) &&
			l.UpdateMustSees(snap.MustSee)
	}
}

// syncLoves sends only the love set.
func (e *Engine) syncLoves(snap *Snapshot) {
	for _, l := range e.listenersCopy() {
		l.UpdateLoves(snap.Love)
	}
}

// FullClientUpdate sends the whole current snapshot to one listener. It
// returns false when the listener rejected any part.
func (e *Engine) FullClientUpdate(l Listener) bool {
	snap := e.Snapshot()
	return l.UpdateCauses(snap.Cause) &&
		l.UpdateProbabilities(snap.Probability) &&
		l.UpdateMustSees(snap.MustSee) &&
		l.UpdateLoves(snap.Love)
}
