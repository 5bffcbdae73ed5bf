// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/profiler"
)

// buildEngineConfig maps the loaded profiler settings onto the engine's
// own configuration.
func buildEngineConfig(cfg *config.ProfilerConfig) *profiler.Config {
	pc := profiler.DefaultConfig()
	pc.Lookahead = cfg.Lookahead
	pc.Lookbehind = cfg.Lookbehind
	pc.IndexOptimization = cfg.IndexOptimization
	pc.LimitedInit = cfg.LimitedInit
	pc.WorkerOverride = cfg.WorkerOverride
	pc.CPUControl = cfg.CPUControl
	pc.CPUControlMinAgents = cfg.CPUControlMinAgents
	pc.SleepPeriod = cfg.SleepPeriod
	pc.CycleCeiling = cfg.CycleCeiling
	pc.IdleWait = cfg.IdleWait
	pc.BootstrapPoll = cfg.BootstrapPoll
	pc.ProgressPoll = cfg.ProgressPoll
	pc.MinProbability = cfg.MinProbability
	pc.DefaultStartPad = cfg.DefaultStartPad
	pc.DefaultStopPad = cfg.DefaultStopPad
	pc.DisallowedTitles = append([]string(nil), cfg.DisallowedTitles...)
	return pc
}

// initEngine creates the profiler. Bootstrap progress is logged at each
// tenth so a large first cycle is visible without debug logging.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initEngine(cfg *config.Config, st profiler.Store, logger zerolog.Logger) (*profiler.Engine, error) {
	engine, err := profiler.NewEngine(buildEngineConfig(&cfg.Profiler), st, logger)
	if err != nil {
		return nil, fmt.Errorf("create profiler engine: %w", err)
	}

	lastTenth := -1
	engine.SetProgressFunc(func(fraction float64) {
		tenth := int(fraction * 10)
		if tenth == lastTenth {
			return
		}
		lastTenth = tenth
		logger.Info().Float64("fraction", fraction).Msg("Profiler bootstrap progress")
	})
	return engine, nil
}
