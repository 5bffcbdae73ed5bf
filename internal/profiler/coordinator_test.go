// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/store"
)

type syncScheduler struct {
	mu    sync.Mutex
	kicks int
}

func (s *syncScheduler) Kick(context.Context, bool) {
	s.mu.Lock()
	s.kicks++
	s.mu.Unlock()
}

func (s *syncScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kicks
}

func TestJobQueuePreempts(t *testing.T) {
	tests := []struct {
		name         string
		kinds        []JobKind
		underCeiling bool
		want         bool
	}{
		{"empty", nil, true, false},
		{"standard never preempts", []JobKind{JobStandard}, true, false},
		{"watch under ceiling", []JobKind{JobWatchMark}, true, true},
		{"watch past ceiling", []JobKind{JobWatchMark}, false, false},
		{"love past ceiling", []JobKind{JobStandard, JobLove}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newJobQueue()
			for _, k := range tt.kinds {
				q.push(job{kind: k})
			}
			if got := q.preempts(tt.underCeiling); got != tt.want {
				t.Errorf("preempts(%v) = %v, want %v", tt.underCeiling, got, tt.want)
			}
		})
	}
}

func TestJobQueueDrainConsumesWakeup(t *testing.T) {
	q := newJobQueue()
	q.push(job{kind: JobStandard})
	q.push(job{kind: JobRequired})

	if got := len(q.drain()); got != 2 {
		t.Fatalf("drain() returned %d jobs, want 2", got)
	}
	select {
	case <-q.notify:
		t.Error("wake-up still pending after drain")
	default:
	}

	q.push(job{kind: JobLove})
	select {
	case <-q.notify:
	default:
		t.Error("push after drain did not signal")
	}
}

func TestJobKindString(t *testing.T) {
	if JobLoveClear.String() != "love_clear" || JobKind(99).String() != "unknown" {
		t.Error("unexpected job kind labels")
	}
}

func TestRunBootstrapsAndStops(t *testing.T) {
	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.PutShow(ctx, &models.Show{ID: 1, Title: "Nova"}); err != nil {
		t.Fatalf("PutShow() error = %v", err)
	}
	if err := st.PutAiring(ctx, &models.Airing{ID: 1, ShowID: 1, StationID: 1, Channel: "KQED",
		Start: time.Now().Add(time.Hour), Duration: time.Hour}); err != nil {
		t.Fatalf("PutAiring() error = %v", err)
	}
	err = st.UpdateAgents(ctx, func(tx store.AgentTx) error {
		if _, _, err := tx.Add(&models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "Nova"}); err != nil {
			return err
		}
		_, _, err := tx.Add(&models.Agent{Mask: models.MaskChannel, Channel: "KQED"})
		return err
	})
	if err != nil {
		t.Fatalf("UpdateAgents() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.BootstrapPoll = time.Millisecond
	e, err := NewEngine(cfg, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	sched := &syncScheduler{}
	e.SetScheduler(sched)
	var progressMu sync.Mutex
	var last float64
	e.SetProgressFunc(func(f float64) {
		progressMu.Lock()
		last = f
		progressMu.Unlock()
	})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- e.Run(runCtx) }()

	// Bootstrap publishes the favorites-only cycle, then the queued
	// standard job publishes the full one.
	deadline := time.Now().Add(5 * time.Second)
	for e.Snapshot().Version < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if v := e.Snapshot().Version; v < 2 {
		t.Fatalf("snapshot version = %d, want at least 2", v)
	}
	if !e.Prepped() || !e.Status().DoneInit {
		t.Error("engine is not prepped after bootstrap")
	}
	if !e.IsMustSee(1) {
		t.Error("favorite airing is not must-see")
	}
	if sched.count() == 0 {
		t.Error("scheduler was never kicked")
	}
	progressMu.Lock()
	if last != 1 {
		t.Errorf("final bootstrap progress = %v, want 1", last)
	}
	progressMu.Unlock()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestIterateRecoversPanics(t *testing.T) {
	e, st := newTestEngine(t, nil)
	putShow(t, st, &models.Show{ID: 1, Title: "Nova"})
	putAiring(t, st, 1, 1, time.Hour, true)
	addAgent(t, st, &models.Agent{Mask: models.MaskChannel, Channel: "KQED", CreatedAt: testNow})
	e.SetEstimator(estimatorFunc(func(*models.Agent, *History) (float64, error) {
		panic("estimator exploded")
	}))

	e.iterate(context.Background())
	if e.Prepped() {
		t.Error("a panicking cycle published a snapshot")
	}
}

func TestRunPublishesOncePerSignal(t *testing.T) {
	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.PutShow(ctx, &models.Show{ID: 1, Title: "Nova"}); err != nil {
		t.Fatalf("PutShow() error = %v", err)
	}
	if err := st.PutAiring(ctx, &models.Airing{ID: 1, ShowID: 1, StationID: 1, Channel: "KQED",
		Start: time.Now().Add(time.Hour), Duration: time.Hour}); err != nil {
		t.Fatalf("PutAiring() error = %v", err)
	}
	err = st.UpdateAgents(ctx, func(tx store.AgentTx) error {
		_, _, err := tx.Add(&models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "Nova"})
		return err
	})
	if err != nil {
		t.Fatalf("UpdateAgents() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.LimitedInit = true
	cfg.IdleWait = time.Hour
	cfg.BootstrapPoll = time.Millisecond
	e, err := NewEngine(cfg, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- e.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitVersion := func(want uint64) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for e.Snapshot().Version < want && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if v := e.Snapshot().Version; v < want {
			t.Fatalf("snapshot version = %d, want %d", v, want)
		}
	}

	// The bootstrap cycle and its queued standard job.
	waitVersion(2)
	time.Sleep(200 * time.Millisecond)
	if v := e.Snapshot().Version; v != 2 {
		t.Fatalf("version after startup = %d, want 2", v)
	}

	e.Recompute()
	waitVersion(3)
	time.Sleep(200 * time.Millisecond)
	if v := e.Snapshot().Version; v != 3 {
		t.Errorf("version after one recompute = %d, want 3", v)
	}
}
