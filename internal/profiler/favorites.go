// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler/priority"
	"github.com/tomtom215/marquee/internal/store"
)

// demotedProbability is given to airings that just lost their favorite so
// they are kept until the next cycle settles them.
const demotedProbability = 0.9

// FavoriteOptions changes retention and padding of a favorite. Nil fields
// are left unchanged.
type FavoriteOptions struct {
	StartPad           *time.Duration
	StopPad            *time.Duration
	KeepAtMost         *int
	DontAutodelete     *bool
	DeleteAfterConvert *bool
}

// viewing is the history needed for incremental favorite updates.
type viewing struct {
	watched  IDSet
	recorded IDSet
}

func (e *Engine) loadViewing(ctx context.Context) (*viewing, error) {
	watched, err := e.store.Watched(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watched: %w", err)
	}
	files, err := e.store.MediaFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load media files: %w", err)
	}
	v := &viewing{watched: make(IDSet), recorded: make(IDSet)}
	for _, w := range watched {
		if w.Complete {
			v.watched.Add(w.AiringID)
		}
	}
	for _, f := range files {
		if f.Complete {
			v.recorded.Add(f.AiringID)
		}
	}
	return v, nil
}

// claim credits fav for matches in s: every match is loved, and in-window
// matches get probability 1 and must-see unless fav is at its cap.
func (e *Engine) claim(s *Snapshot, fav *models.Agent, matches []*models.Airing, v *viewing) {
	now := e.now()
	recorded := 0
	for _, a := range matches {
		if v.recorded.Has(a.ID) {
			recorded++
		}
	}
	dontSchedule := fav.Capped() && recorded >= fav.KeepAtMost

	for _, a := range matches {
		s.Love.Add(a.ID)
		if !e.inWindow(a, now) {
			continue
		}
		s.Pots.Add(a.ID)
		s.Cause[a.ID] = fav
		if v.watched.Has(a.ID) {
			if _, ok := s.Probability[a.ID]; !ok {
				s.Probability[a.ID] = 0
			}
			continue
		}
		s.Probability[a.ID] = 1
		if !dontSchedule {
			s.MustSee.Add(a.ID)
		}
	}
}

func matching(a *models.Agent, airs []*models.Airing) []*models.Airing {
	var out []*models.Airing
	for _, air := range airs {
		if a.Matches(air) {
			out = append(out, air)
		}
	}
	return out
}

func enabledFavorites(agents []*models.Agent) []*models.Agent {
	var out []*models.Agent
	for _, a := range agents {
		if a.IsFavorite() && a.Enabled() {
			out = append(out, a)
		}
	}
	return out
}

// AddFavorite stores a new favorite built from spec and immediately loves
// its matches. When a favorite with the same rule exists it is returned
// unchanged.
func (e *Engine) AddFavorite(ctx context.Context, spec *models.Agent) (*models.Agent, error) {
	fav := spec.Clone()
	fav.ID = 0
	fav.Weaker = nil
	fav.Mask = (fav.Mask | models.MaskLove) &^ models.MaskDontLike
	fav.Flags &^= models.FlagDisabled
	fav.CreatedAt = e.now()
	if fav.StartPad == 0 {
		fav.StartPad = e.config.DefaultStartPad
	}
	if fav.StopPad == 0 {
		fav.StopPad = e.config.DefaultStopPad
	}
	if err := fav.Validate(); err != nil {
		return nil, err
	}

	var stored *models.Agent
	var created bool
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		var err error
		stored, created, err = tx.Add(fav)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	if !created {
		return stored, nil
	}

	e.logger.Info().Int64("agent_id", stored.ID).Str("favorite", stored.Describe()).Msg("Favorite added")
	if err := e.handleAdded(ctx, stored); err != nil {
		e.logger.Warn().Err(err).Int64("agent_id", stored.ID).Msg("Deferring favorite to next cycle")
	}
	e.submit(JobLove, nil)
	return stored, nil
}

func (e *Engine) handleAdded(ctx context.Context, fav *models.Agent) error {
	airs, err := e.store.Airings(ctx)
	if err != nil {
		return fmt.Errorf("load airings: %w", err)
	}
	v, err := e.loadViewing(ctx)
	if err != nil {
		return err
	}
	matches := matching(fav, airs)
	snap := e.mutate(func(s *Snapshot) {
		e.claim(s, fav, matches, v)
	})
	e.syncListeners(snap)
	e.scheduler.Kick(ctx, true)
	return nil
}

// UpdateFavorite replaces the rule of a favorite. An unchanged rule is a
// no-op and a rule that duplicates another agent returns that agent.
// Airings only the old rule matched, and no other favorite saves, are
// demoted; airings the new rule matches are claimed.
func (e *Engine) UpdateFavorite(ctx context.Context, id int64, spec *models.Agent) (*models.Agent, error) {
	var old, updated, result *models.Agent
	var favs []*models.Agent
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		cur, err := tx.Get(id)
		if err != nil {
			return err
		}
		if !cur.IsFavorite() {
			return ErrNotFavorite
		}
		next := withRule(cur, spec)
		if err := next.Validate(); err != nil {
			return err
		}
		if next.RuleKey() == cur.RuleKey() {
			result = cur
			return nil
		}
		dup, err := tx.FindRule(next)
		switch {
		case err == nil:
			result = dup
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if err := tx.Update(next); err != nil {
			return err
		}
		all, err := tx.Agents()
		if err != nil {
			return err
		}
		old, updated, result = cur, next, next
		favs = enabledFavorites(all)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update favorite %d: %w", id, err)
	}
	if updated == nil {
		return result, nil
	}

	e.logger.Info().Int64("agent_id", id).Str("favorite", updated.Describe()).Msg("Favorite updated")
	if updated.Enabled() {
		if err := e.handleUpdated(ctx, old, updated, favs); err != nil {
			e.logger.Warn().Err(err).Int64("agent_id", id).Msg("Deferring favorite to next cycle")
		}
	}
	e.submit(JobLove, nil)
	return updated, nil
}

// withRule returns a copy of cur with the match rule of spec.
func withRule(cur, spec *models.Agent) *models.Agent {
	next := cur.Clone()
	next.Mask = (spec.Mask | models.MaskLove) &^ models.MaskDontLike
	next.Title = spec.Title
	next.Category = spec.Category
	next.SubCategory = spec.SubCategory
	next.Person = spec.Person
	next.Role = spec.Role
	next.Rated = spec.Rated
	next.Year = spec.Year
	next.PR = spec.PR
	next.Channel = spec.Channel
	next.Network = spec.Network
	next.Keyword = spec.Keyword
	next.Timeslots = append([]int(nil), spec.Timeslots...)
	return next
}

func (e *Engine) handleUpdated(ctx context.Context, old, fav *models.Agent, favs []*models.Agent) error {
	airs, err := e.store.Airings(ctx)
	if err != nil {
		return fmt.Errorf("load airings: %w", err)
	}
	v, err := e.loadViewing(ctx)
	if err != nil {
		return err
	}

	var survive, mayDie []*models.Airing
	for _, a := range airs {
		switch {
		case fav.Matches(a):
			survive = append(survive, a)
		case old.Matches(a) && !savedByOther(a, fav.ID, favs):
			mayDie = append(mayDie, a)
		}
	}
	if len(survive) == 0 && len(mayDie) == 0 {
		return nil
	}

	snap := e.mutate(func(s *Snapshot) {
		for _, a := range mayDie {
			s.Love.Remove(a.ID)
			s.MustSee.Remove(a.ID)
			s.Probability[a.ID] = demotedProbability
		}
		e.claim(s, fav, survive, v)
	})
	e.syncListeners(snap)
	e.scheduler.Kick(ctx, true)
	return nil
}

// savedByOther reports whether a favorite other than exclude matches a.
func savedByOther(a *models.Airing, exclude int64, favs []*models.Agent) bool {
	return otherFavorite(a, exclude, favs) != nil
}

func otherFavorite(a *models.Airing, exclude int64, favs []*models.Agent) *models.Agent {
	for _, f := range favs {
		if f.ID != exclude && f.Matches(a) {
			return f
		}
	}
	return nil
}

// RemoveFavorite deletes a favorite. Its airings are handed to another
// matching favorite or dropped from every set.
func (e *Engine) RemoveFavorite(ctx context.Context, id int64) error {
	var fav *models.Agent
	var favs []*models.Agent
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		cur, err := tx.Get(id)
		if err != nil {
			return err
		}
		if !cur.IsFavorite() {
			return ErrNotFavorite
		}
		if err := tx.Delete(id); err != nil {
			return err
		}
		all, err := tx.Agents()
		if err != nil {
			return err
		}
		fav, favs = cur, enabledFavorites(all)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove favorite %d: %w", id, err)
	}

	e.logger.Info().Int64("agent_id", id).Str("favorite", fav.Describe()).Msg("Favorite removed")
	if fav.Enabled() {
		if err := e.handleRemoved(ctx, fav, favs); err != nil {
			e.logger.Warn().Err(err).Int64("agent_id", id).Msg("Deferring favorite removal to next cycle")
		}
	}
	e.submit(JobLove, nil)
	return nil
}

// handleRemoved withdraws fav's claims. Fully watched airings keep their
// score until the next cycle.
func (e *Engine) handleRemoved(ctx context.Context, fav *models.Agent, favs []*models.Agent) error {
	airs, err := e.store.Airings(ctx)
	if err != nil {
		return fmt.Errorf("load airings: %w", err)
	}
	v, err := e.loadViewing(ctx)
	if err != nil {
		return err
	}
	matches := matching(fav, airs)

	snap := e.mutate(func(s *Snapshot) {
		for _, a := range matches {
			if other := otherFavorite(a, fav.ID, favs); other != nil {
				if c := s.Cause[a.ID]; c != nil && c.ID == fav.ID {
					s.Cause[a.ID] = other
				}
				continue
			}
			s.Love.Remove(a.ID)
			s.MustSee.Remove(a.ID)
			if v.watched.Has(a.ID) {
				continue
			}
			s.drop(a.ID)
		}
	})
	e.syncListeners(snap)
	e.scheduler.Kick(ctx, true)
	return nil
}

// EnableFavorite enables or disables a favorite and applies the matching
// incremental update.
func (e *Engine) EnableFavorite(ctx context.Context, id int64, enabled bool) (*models.Agent, error) {
	var fav *models.Agent
	var favs []*models.Agent
	var changed bool
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		cur, err := tx.Get(id)
		if err != nil {
			return err
		}
		if !cur.IsFavorite() {
			return ErrNotFavorite
		}
		if cur.Enabled() == enabled {
			fav = cur
			return nil
		}
		next := cur.Clone()
		if enabled {
			next.Flags &^= models.FlagDisabled
		} else {
			next.Flags |= models.FlagDisabled
		}
		if err := tx.Update(next); err != nil {
			return err
		}
		all, err := tx.Agents()
		if err != nil {
			return err
		}
		fav, favs, changed = next, enabledFavorites(all), true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enable favorite %d: %w", id, err)
	}
	if !changed {
		return fav, nil
	}

	e.logger.Info().Int64("agent_id", id).Bool("enabled", enabled).Msg("Favorite toggled")
	if enabled {
		err = e.handleAdded(ctx, fav)
	} else {
		err = e.handleRemoved(ctx, fav, favs)
	}
	if err != nil {
		e.logger.Warn().Err(err).Int64("agent_id", id).Msg("Deferring favorite toggle to next cycle")
	}
	e.submit(JobLove, nil)
	return fav, nil
}

// SetFavoriteOptions updates padding and retention settings.
func (e *Engine) SetFavoriteOptions(ctx context.Context, id int64, opts FavoriteOptions) (*models.Agent, error) {
	var fav *models.Agent
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		cur, err := tx.Get(id)
		if err != nil {
			return err
		}
		if !cur.IsFavorite() {
			return ErrNotFavorite
		}
		next := cur.Clone()
		if opts.StartPad != nil {
			next.StartPad = *opts.StartPad
		}
		if opts.StopPad != nil {
			next.StopPad = *opts.StopPad
		}
		if opts.KeepAtMost != nil {
			next.KeepAtMost = *opts.KeepAtMost
		}
		setFlag(next, models.FlagDontAutodelete, opts.DontAutodelete)
		setFlag(next, models.FlagDeleteAfterConvert, opts.DeleteAfterConvert)
		if next.KeepAtMost < 0 || next.StartPad < 0 || next.StopPad < 0 {
			return fmt.Errorf("%w: negative padding or keep_at_most", models.ErrInvalidAgent)
		}
		fav = next
		return tx.Update(next)
	})
	if err != nil {
		return nil, fmt.Errorf("set favorite %d options: %w", id, err)
	}
	e.scheduler.Kick(ctx, true)
	e.Kick()
	return fav, nil
}

func setFlag(a *models.Agent, f models.Flag, on *bool) {
	switch {
	case on == nil:
	case *on:
		a.Flags |= f
	default:
		a.Flags &^= f
	}
}

// CreatePriority makes top outrank bottom, dropping any reverse edge.
func (e *Engine) CreatePriority(ctx context.Context, topID, bottomID int64) error {
	if topID == bottomID {
		return fmt.Errorf("%w: an agent cannot outrank itself", models.ErrInvalidAgent)
	}
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		top, err := tx.Get(topID)
		if err != nil {
			return err
		}
		bottom, err := tx.Get(bottomID)
		if err != nil {
			return err
		}
		top, bottom = top.Clone(), bottom.Clone()
		top.Bully(bottom)
		if err := tx.Update(top); err != nil {
			return err
		}
		return tx.Update(bottom)
	})
	if err != nil {
		return fmt.Errorf("create priority %d over %d: %w", topID, bottomID, err)
	}
	e.logger.Info().Int64("top", topID).Int64("bottom", bottomID).Msg("Priority created")
	e.scheduler.Kick(ctx, true)
	return nil
}

// FixAgentPriorities drops dangling weaker IDs, re-applies every edge and
// returns the rebuilt favorite order.
func (e *Engine) FixAgentPriorities(ctx context.Context) ([]*models.Agent, error) {
	var repaired int
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		all, err := tx.Agents()
		if err != nil {
			return err
		}
		changed := priority.Repair(all)
		for _, a := range changed {
			if err := tx.Update(a); err != nil {
				return err
			}
		}
		repaired = len(changed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fix priorities: %w", err)
	}
	e.logger.Info().Int("repaired", repaired).Msg("Favorite priorities rebuilt")
	return e.Favorites(ctx)
}

// Favorites returns every favorite, strongest first.
func (e *Engine) Favorites(ctx context.Context) ([]*models.Agent, error) {
	agents, err := e.store.Agents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	var favs []*models.Agent
	for _, a := range agents {
		if a.IsFavorite() {
			favs = append(favs, a)
		}
	}
	return e.linearize(favs), nil
}

func (e *Engine) linearize(favs []*models.Agent) []*models.Agent {
	order, err := priority.Linearize(favs)
	if err != nil {
		metrics.PriorityBudgetExhausted.Inc()
		e.logger.Warn().Err(err).Msg("Favorite priorities are cyclic; order is best effort")
	}
	return order
}
