// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"fmt"
	"time"
)

// MaxWorkers caps the evaluator pool regardless of processor count.
const MaxWorkers = 64

// agentsPerWorker is how many agents justify one extra evaluator.
const agentsPerWorker = 75

// Config contains all configuration for the profiling engine.
type Config struct {
	// Lookahead is how far into the future an airing counts as in-window.
	Lookahead time.Duration `json:"lookahead"`

	// Lookbehind is how far into the past an airing still counts as
	// in-window.
	Lookbehind time.Duration `json:"lookbehind"`

	// IndexOptimization builds demand-driven reverse indexes for each
	// cycle. When false every agent scans the airing lists linearly.
	IndexOptimization bool `json:"index_optimization"`

	// LimitedInit evaluates only enabled favorites during the first cycle.
	LimitedInit bool `json:"limited_init"`

	// WorkerOverride replaces the computed pool size when positive.
	WorkerOverride int `json:"worker_override"`

	// CPUControl throttles evaluators after bootstrap when more than
	// CPUControlMinAgents agents are evaluated.
	CPUControl          bool          `json:"cpu_control"`
	CPUControlMinAgents int           `json:"cpu_control_min_agents"`
	SleepPeriod         time.Duration `json:"sleep_period"`

	// CycleCeiling is how long a cycle may be preempted by urgent jobs.
	// Past it the cycle runs to completion unless a favorite changed.
	CycleCeiling time.Duration `json:"cycle_ceiling"`

	// IdleWait bounds how long the coordinator sleeps on an empty queue.
	IdleWait time.Duration `json:"idle_wait"`

	// BootstrapPoll and ProgressPoll are the progress sampling intervals
	// during and after the first cycle.
	BootstrapPoll time.Duration `json:"bootstrap_poll"`
	ProgressPoll  time.Duration `json:"progress_poll"`

	// MinProbability floors every probability query.
	MinProbability float64 `json:"min_probability"`

	// DefaultStartPad and DefaultStopPad are applied to new favorites
	// that do not set their own padding.
	DefaultStartPad time.Duration `json:"default_start_pad"`
	DefaultStopPad  time.Duration `json:"default_stop_pad"`

	// DisallowedTitles are never scored, whatever matches them.
	DisallowedTitles []string `json:"disallowed_titles"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Lookahead:           14 * 24 * time.Hour,
		Lookbehind:          time.Hour,
		IndexOptimization:   true,
		LimitedInit:         true,
		CPUControl:          true,
		CPUControlMinAgents: 50,
		SleepPeriod:         30 * time.Millisecond,
		CycleCeiling:        30 * time.Minute,
		IdleWait:            time.Hour,
		BootstrapPoll:       250 * time.Millisecond,
		ProgressPoll:        time.Minute,
		DisallowedTitles:    []string{"Paid Programming"},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Lookahead <= 0 {
		return fmt.Errorf("lookahead must be positive, got %v", c.Lookahead)
	}
	if c.Lookbehind < 0 {
		return fmt.Errorf("lookbehind must be non-negative, got %v", c.Lookbehind)
	}
	if c.WorkerOverride < 0 || c.WorkerOverride > MaxWorkers {
		return fmt.Errorf("worker_override must be in [0, %d], got %d", MaxWorkers, c.WorkerOverride)
	}
	if c.CPUControlMinAgents < 0 {
		return fmt.Errorf("cpu_control_min_agents must be non-negative, got %d", c.CPUControlMinAgents)
	}
	if c.CPUControl && c.SleepPeriod <= 0 {
		return fmt.Errorf("sleep_period must be positive when cpu_control is set, got %v", c.SleepPeriod)
	}
	if c.CycleCeiling <= 0 {
		return fmt.Errorf("cycle_ceiling must be positive, got %v", c.CycleCeiling)
	}
	if c.IdleWait <= 0 {
		return fmt.Errorf("idle_wait must be positive, got %v", c.IdleWait)
	}
	if c.BootstrapPoll <= 0 || c.ProgressPoll <= 0 {
		return fmt.Errorf("bootstrap_poll and progress_poll must be positive, got %v and %v",
			c.BootstrapPoll, c.ProgressPoll)
	}
	if c.MinProbability < 0 || c.MinProbability > 1 {
		return fmt.Errorf("min_probability must be in [0, 1], got %f", c.MinProbability)
	}
	if c.DefaultStartPad < 0 || c.DefaultStopPad < 0 {
		return fmt.Errorf("default pads must be non-negative, got %v and %v", c.DefaultStartPad, c.DefaultStopPad)
	}
	return nil
}

// workers returns the evaluator pool size for n agents.
func (c *Config) workers(n, procs int) int {
	if c.WorkerOverride > 0 {
		return c.WorkerOverride
	}
	if n == 0 {
		return 0
	}
	w := min(procs, max(1, n/agentsPerWorker))
	return min(max(w, 1), MaxWorkers)
}
