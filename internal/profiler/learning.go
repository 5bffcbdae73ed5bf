// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"strings"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/store"
)

// trendTemplates are the rule shapes learned from a watched airing.
var trendTemplates = []models.Mask{
	models.MaskTitle | models.MaskFirstRun,
	models.MaskTitle | models.MaskReRun,
	models.MaskChannel | models.MaskCategory,
	models.MaskNetwork | models.MaskCategory,
	models.MaskPerson,
	models.MaskChannel | models.MaskPR,
	models.MaskCategory | models.MaskPR,
}

// trendsFor builds the candidate trends for a watched airing. Templates
// whose fields the airing lacks are skipped.
func trendsFor(air *models.Airing) []*models.Agent {
	show := air.Show
	if show == nil {
		return nil
	}
	var out []*models.Agent
	for _, mask := range trendTemplates {
		if mask&models.MaskTitle != 0 {
			if show.Title == "" || air.IsMovie() {
				continue
			}
			if (mask&models.MaskFirstRun != 0) != air.FirstRun {
				continue
			}
		}
		if mask&models.MaskPerson != 0 {
			for _, c := range show.People {
				if c.Name != "" {
					out = append(out, &models.Agent{Mask: mask, Person: c.Name})
				}
			}
			continue
		}
		a := &models.Agent{
			Mask:     mask,
			Title:    show.Title,
			Category: show.Category(),
			PR:       air.PR,
			Channel:  air.Channel,
			Network:  air.Network,
		}
		if a.Validate() != nil {
			continue
		}
		out = append(out, strip(a))
	}
	return out
}

// strip clears values of inactive dimensions so the rule tuple only
// carries what the mask uses.
func strip(a *models.Agent) *models.Agent {
	if a.Mask&models.MaskTitle == 0 {
		a.Title = ""
	}
	if a.Mask&models.MaskCategory == 0 {
		a.Category = ""
	}
	if a.Mask&models.MaskPR == 0 {
		a.PR = ""
	}
	if a.Mask&models.MaskChannel == 0 {
		a.Channel = ""
	}
	if a.Mask&models.MaskNetwork == 0 {
		a.Network = ""
	}
	return a
}

// applyWatch learns trends from a watched television airing. Existing
// rules are left alone.
func (e *Engine) applyWatch(ctx context.Context, air *models.Airing) error {
	if air == nil || !air.IsTV() {
		return nil
	}
	candidates := trendsFor(air)
	if len(candidates) == 0 {
		return nil
	}
	created := 0
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		for _, a := range candidates {
			a.CreatedAt = e.now()
			_, isNew, err := tx.Add(a)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if created > 0 {
		e.logger.Debug().Int64("airing_id", air.ID).Int("created", created).Msg("Learned trends from watch")
	}
	return nil
}

// applyWaste gives a wasted airing a title trend when no title trend
// covers it yet, so the waste is counted against it.
func (e *Engine) applyWaste(ctx context.Context, air *models.Airing) error {
	if air == nil || air.Show == nil || air.Show.Title == "" {
		return nil
	}
	mask := models.MaskTitle | models.MaskReRun
	if air.FirstRun {
		mask = models.MaskTitle | models.MaskFirstRun
	}
	return e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		agents, err := tx.Agents()
		if err != nil {
			return err
		}
		for _, a := range agents {
			if a.Mask&models.MaskTitle != 0 && strings.EqualFold(a.Title, air.Show.Title) && a.Matches(air) {
				return nil
			}
		}
		_, _, err = tx.Add(&models.Agent{Mask: mask, Title: air.Show.Title, CreatedAt: e.now()})
		return err
	})
}
