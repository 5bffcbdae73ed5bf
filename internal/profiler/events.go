// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/store"
)

// ReportWatch records a viewing of an airing and queues trend learning.
// confirmed distinguishes a real viewing from a user mark; complete
// counts the airing as fully watched.
func (e *Engine) ReportWatch(ctx context.Context, airingID int64, confirmed, complete bool) error {
	air, err := e.store.Airing(ctx, airingID)
	if err != nil {
		return fmt.Errorf("load airing %d: %w", airingID, err)
	}
	w := &models.Watched{
		AiringID:  air.ID,
		ShowID:    air.ShowID,
		WatchedAt: e.now(),
		Complete:  complete,
	}
	if err := e.store.PutWatched(ctx, w); err != nil {
		return fmt.Errorf("record watch of %d: %w", airingID, err)
	}
	e.watchCount.Add(1)

	kind := JobWatchMark
	if confirmed {
		kind = JobWatchReal
	}
	e.submit(kind, air)
	return nil
}

// ClearWatch removes the viewing record of an airing and requests a full
// cycle.
func (e *Engine) ClearWatch(ctx context.Context, airingID int64) error {
	err := e.store.DeleteWatched(ctx, airingID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("clear watch of %d: %w", airingID, err)
	}
	e.submit(JobWatchClear, nil)
	return nil
}

// AddDontLike marks a television airing as wasted. Other content is
// ignored.
func (e *Engine) AddDontLike(ctx context.Context, airingID int64, manual bool) error {
	air, err := e.store.Airing(ctx, airingID)
	if err != nil {
		return fmt.Errorf("load airing %d: %w", airingID, err)
	}
	if !air.IsTV() {
		return nil
	}
	w := &models.Wasted{AiringID: air.ID, Manual: manual, CreatedAt: e.now()}
	prev, err := e.store.WastedFor(ctx, air.ID)
	switch {
	case err == nil:
		// An automatic report never downgrades a manual mark.
		w.Manual = w.Manual || prev.Manual
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("load waste of %d: %w", airingID, err)
	}
	if err := e.store.PutWasted(ctx, w); err != nil {
		return fmt.Errorf("record waste of %d: %w", airingID, err)
	}
	e.submit(JobWasted, air)
	e.scheduler.Kick(ctx, true)
	return nil
}

// RemoveDontLike clears the wasted mark of an airing, or the don't-like
// mark of its show when the airing has none.
func (e *Engine) RemoveDontLike(ctx context.Context, airingID int64) error {
	air, err := e.store.Airing(ctx, airingID)
	if err != nil {
		return fmt.Errorf("load airing %d: %w", airingID, err)
	}
	if !air.IsTV() {
		return nil
	}
	err = e.store.DeleteWasted(ctx, air.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := e.store.SetShowDontLike(ctx, air.ShowID, false); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("clear don't-like of show %d: %w", air.ShowID, err)
		}
	case err != nil:
		return fmt.Errorf("clear waste of %d: %w", airingID, err)
	}
	e.scheduler.Kick(ctx, true)
	return nil
}

// NotifyAiringSwap moves all derived state of oldID onto newID. The swap
// is also replayed onto the result of a cycle already in flight.
func (e *Engine) NotifyAiringSwap(oldID, newID int64) {
	if oldID == newID {
		return
	}
	e.publishMu.Lock()
	defer e.publishMu.Unlock()
	next := e.current.Load().clone()
	next.swap(oldID, newID)
	for k, v := range e.swaps {
		if v == oldID {
			e.swaps[k] = newID
		}
	}
	e.swaps[oldID] = newID
	e.publish(next)
	e.logger.Debug().Int64("old", oldID).Int64("new", newID).Msg("Airing identity swapped")
}
