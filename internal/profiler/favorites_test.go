// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/models"
)

func TestAddFavorite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CPUControl = false
	cfg.DefaultStartPad = 2 * time.Minute
	e, st := newTestEngine(t, cfg)
	sched := &recordingScheduler{}
	e.SetScheduler(sched)
	putShow(t, st, &models.Show{ID: 1, Title: "Nova"})
	soon := putAiring(t, st, 1, 1, time.Hour, true)
	far := putAiring(t, st, 2, 1, 60*24*time.Hour, true)

	ctx := context.Background()
	fav, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle, Title: "Nova"})
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if !fav.IsFavorite() || fav.ID == 0 {
		t.Errorf("AddFavorite() = %+v, want a stored favorite", fav)
	}
	if fav.StartPad != 2*time.Minute {
		t.Errorf("StartPad = %v, want default 2m", fav.StartPad)
	}

	snap := e.Snapshot()
	assertInvariants(t, snap)
	if !snap.MustSee.Has(soon.ID) || snap.Probability[soon.ID] != 1 || snap.Cause[soon.ID].ID != fav.ID {
		t.Error("in-window match was not claimed")
	}
	if !snap.Love.Has(far.ID) || snap.Pots.Has(far.ID) {
		t.Error("far match should only be loved")
	}
	if got := e.queue.len(); got != 1 {
		t.Errorf("queue length = %d, want one love job", got)
	}
	if len(sched.kicks) == 0 || !sched.kicks[0].required {
		t.Error("scheduler was not kicked urgently")
	}

	dup, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle, Title: "nova"})
	if err != nil {
		t.Fatalf("AddFavorite(duplicate) error = %v", err)
	}
	if dup.ID != fav.ID {
		t.Errorf("duplicate favorite ID = %d, want existing %d", dup.ID, fav.ID)
	}
	if got := e.queue.len(); got != 1 {
		t.Errorf("queue length after duplicate = %d, want 1", got)
	}

	if _, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle}); !errors.Is(err, models.ErrInvalidAgent) {
		t.Errorf("AddFavorite(empty title) error = %v, want ErrInvalidAgent", err)
	}
}

func TestStationlessAiringWindowAgrees(t *testing.T) {
	e, st := newTestEngine(t, nil)
	putShow(t, st, &models.Show{ID: 1, Title: "Nova"})
	ctx := context.Background()
	bare := &models.Airing{ID: 1, ShowID: 1, Channel: "KQED", Start: testNow.Add(time.Hour), Duration: time.Hour}
	if err := st.PutAiring(ctx, bare); err != nil {
		t.Fatalf("PutAiring() error = %v", err)
	}

	if _, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle, Title: "Nova"}); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	quick := e.Snapshot()
	full := runTestCycle(t, e)

	for name, snap := range map[string]*Snapshot{"favorite add": quick, "full cycle": full} {
		if snap.Pots.Has(bare.ID) || snap.MustSee.Has(bare.ID) {
			t.Errorf("%s: airing without a station entered pots", name)
		}
		if !snap.Love.Has(bare.ID) {
			t.Errorf("%s: airing without a station is not loved", name)
		}
	}
}

func TestUpdateFavorite(t *testing.T) {
	e, st := newTestEngine(t, nil)
	putShow(t, st, &models.Show{ID: 1, Title: "Nova"})
	putShow(t, st, &models.Show{ID: 2, Title: "Cosmos"})
	nova := putAiring(t, st, 1, 1, time.Hour, true)
	cosmos := putAiring(t, st, 2, 2, 2*time.Hour, true)

	ctx := context.Background()
	fav, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle, Title: "Nova"})
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	e.queue.drain()

	same, err := e.UpdateFavorite(ctx, fav.ID, &models.Agent{Mask: models.MaskTitle, Title: "NOVA"})
	if err != nil {
		t.Fatalf("UpdateFavorite(unchanged) error = %v", err)
	}
	if same.ID != fav.ID || e.queue.len() != 0 {
		t.Error("unchanged rule should be a no-op")
	}

	updated, err := e.UpdateFavorite(ctx, fav.ID, &models.Agent{Mask: models.MaskTitle, Title: "Cosmos"})
	if err != nil {
		t.Fatalf("UpdateFavorite() error = %v", err)
	}
	if updated.ID != fav.ID || updated.Title != "Cosmos" {
		t.Errorf("UpdateFavorite() = %+v, want favorite %d with title Cosmos", updated, fav.ID)
	}

	snap := e.Snapshot()
	assertInvariants(t, snap)
	if snap.Love.Has(nova.ID) || snap.MustSee.Has(nova.ID) {
		t.Error("airing only the old rule matched is still claimed")
	}
	if p := snap.Probability[nova.ID]; p != demotedProbability {
		t.Errorf("Probability[old match] = %v, want %v", p, demotedProbability)
	}
	if !snap.MustSee.Has(cosmos.ID) || snap.Cause[cosmos.ID].ID != fav.ID {
		t.Error("airing the new rule matches was not claimed")
	}
}

func TestUpdateFavoriteResolvesDuplicate(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	a, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle, Title: "Nova"})
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	b, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle, Title: "Cosmos"})
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	got, err := e.UpdateFavorite(ctx, b.ID, &models.Agent{Mask: models.MaskTitle, Title: "Nova"})
	if err != nil {
		t.Fatalf("UpdateFavorite() error = %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("UpdateFavorite(into duplicate) = %d, want existing %d", got.ID, a.ID)
	}
}

func TestFavoriteOperationsRejectTrends(t *testing.T) {
	e, st := newTestEngine(t, nil)
	trend := addAgent(t, st, &models.Agent{Mask: models.MaskChannel, Channel: "KQED", CreatedAt: testNow})
	ctx := context.Background()

	if err := e.RemoveFavorite(ctx, trend.ID); !errors.Is(err, ErrNotFavorite) {
		t.Errorf("RemoveFavorite(trend) error = %v, want ErrNotFavorite", err)
	}
	if _, err := e.EnableFavorite(ctx, trend.ID, false); !errors.Is(err, ErrNotFavorite) {
		t.Errorf("EnableFavorite(trend) error = %v, want ErrNotFavorite", err)
	}
}

func TestRemoveFavoriteReassignsCause(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CPUControl = false
	cfg.WorkerOverride = 1
	e, st := newTestEngine(t, cfg)
	putShow(t, st, &models.Show{ID: 1, Title: "Nova", Categories: []string{"Science"}})
	shared := putAiring(t, st, 1, 1, time.Hour, true)
	putShow(t, st, &models.Show{ID: 3, Title: "Nova"})

	f1 := addAgent(t, st, &models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "Nova", CreatedAt: testNow})
	f2 := addAgent(t, st, &models.Agent{Mask: models.MaskLove | models.MaskCategory, Category: "Science", CreatedAt: testNow})
	only := putAiring(t, st, 2, 3, 2*time.Hour, true)

	snap := runTestCycle(t, e)
	if c := snap.Cause[shared.ID]; c == nil || c.ID != f1.ID {
		t.Fatalf("Cause[shared] = %v, want %d", c, f1.ID)
	}

	if err := e.RemoveFavorite(context.Background(), f1.ID); err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	snap = e.Snapshot()
	assertInvariants(t, snap)
	if c := snap.Cause[shared.ID]; c == nil || c.ID != f2.ID {
		t.Errorf("Cause[shared] = %v, want reassigned to %d", c, f2.ID)
	}
	if !snap.MustSee.Has(shared.ID) || !snap.Love.Has(shared.ID) {
		t.Error("airing saved by another favorite lost its claim")
	}
	if snap.Love.Has(only.ID) || snap.Pots.Has(only.ID) {
		t.Error("airing only the removed favorite matched is still claimed")
	}
	if _, err := st.Agent(context.Background(), f1.ID); err == nil {
		t.Error("removed favorite is still stored")
	}
}

func TestDisableFavoriteKeepsWatchedScores(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	putShow(t, st, &models.Show{ID: 1, Title: "Nova"})
	future := putAiring(t, st, 1, 1, time.Hour, true)
	past := putAiring(t, st, 2, 1, -30*time.Minute, true)
	if err := st.PutWatched(ctx, &models.Watched{AiringID: past.ID, ShowID: 1, Complete: true}); err != nil {
		t.Fatalf("PutWatched() error = %v", err)
	}
	fav := addAgent(t, st, &models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "Nova", CreatedAt: testNow})
	before := runTestCycle(t, e)
	if before.Cause[past.ID] == nil {
		t.Fatal("watched airing has no cause before disabling")
	}

	got, err := e.EnableFavorite(ctx, fav.ID, false)
	if err != nil {
		t.Fatalf("EnableFavorite(false) error = %v", err)
	}
	if got.Enabled() {
		t.Error("favorite is still enabled")
	}

	snap := e.Snapshot()
	assertInvariants(t, snap)
	if snap.MustSee.Has(future.ID) || snap.Love.Has(future.ID) {
		t.Error("future airing still claimed by a disabled favorite")
	}
	if _, ok := snap.Probability[future.ID]; ok {
		t.Error("future airing kept its probability")
	}
	if snap.Cause[past.ID] == nil {
		t.Error("watched airing lost its cause before the next cycle")
	}
	if _, ok := snap.Probability[past.ID]; !ok {
		t.Error("watched airing lost its probability entry before the next cycle")
	}

	snap = runTestCycle(t, e)
	if snap.Cause[past.ID] != nil {
		t.Error("next cycle kept the cause of a disabled favorite")
	}

	if _, err := e.EnableFavorite(ctx, fav.ID, true); err != nil {
		t.Fatalf("EnableFavorite(true) error = %v", err)
	}
	if !e.Snapshot().MustSee.Has(future.ID) {
		t.Error("re-enabled favorite did not claim its airing")
	}
}

func TestSetFavoriteOptions(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	fav, err := e.AddFavorite(ctx, &models.Agent{Mask: models.MaskTitle, Title: "Nova"})
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	keep, on, pad := 2, true, 5*time.Minute
	got, err := e.SetFavoriteOptions(ctx, fav.ID, FavoriteOptions{KeepAtMost: &keep, DontAutodelete: &on, StopPad: &pad})
	if err != nil {
		t.Fatalf("SetFavoriteOptions() error = %v", err)
	}
	if !got.Capped() || got.StopPad != pad {
		t.Errorf("SetFavoriteOptions() = %+v, want capped with 5m stop pad", got)
	}

	neg := -1
	if _, err := e.SetFavoriteOptions(ctx, fav.ID, FavoriteOptions{KeepAtMost: &neg}); !errors.Is(err, models.ErrInvalidAgent) {
		t.Errorf("SetFavoriteOptions(negative) error = %v, want ErrInvalidAgent", err)
	}
}

func TestFavoritesOrder(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	old := addAgent(t, st, &models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "A", CreatedAt: testNow})
	mid := addAgent(t, st, &models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "B", CreatedAt: testNow.Add(time.Minute)})
	addAgent(t, st, &models.Agent{Mask: models.MaskChannel, Channel: "KQED", CreatedAt: testNow})

	order, err := e.Favorites(ctx)
	if err != nil {
		t.Fatalf("Favorites() error = %v", err)
	}
	if len(order) != 2 || order[0].ID != old.ID {
		t.Fatalf("Favorites() = %v, want [%d %d] without edges", agentIDs(order), old.ID, mid.ID)
	}

	if err := e.CreatePriority(ctx, mid.ID, old.ID); err != nil {
		t.Fatalf("CreatePriority() error = %v", err)
	}
	order, err = e.Favorites(ctx)
	if err != nil {
		t.Fatalf("Favorites() error = %v", err)
	}
	if len(order) != 2 || order[0].ID != mid.ID || order[1].ID != old.ID {
		t.Errorf("Favorites() = %v, want [%d %d]", agentIDs(order), mid.ID, old.ID)
	}

	if err := e.CreatePriority(ctx, old.ID, old.ID); err == nil {
		t.Error("CreatePriority(self) error = nil")
	}
}

func TestFixAgentPriorities(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	a := addAgent(t, st, &models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "A", CreatedAt: testNow,
		Weaker: []int64{404}})
	b := addAgent(t, st, &models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "B",
		CreatedAt: testNow.Add(time.Minute), Weaker: []int64{a.ID}})

	order, err := e.FixAgentPriorities(ctx)
	if err != nil {
		t.Fatalf("FixAgentPriorities() error = %v", err)
	}
	if len(order) != 2 || order[0].ID != b.ID {
		t.Errorf("FixAgentPriorities() = %v, want %d first", agentIDs(order), b.ID)
	}
	stored, err := st.Agent(ctx, a.ID)
	if err != nil {
		t.Fatalf("Agent() error = %v", err)
	}
	if len(stored.Weaker) != 0 {
		t.Errorf("dangling weaker IDs = %v, want none", stored.Weaker)
	}
}

func agentIDs(agents []*models.Agent) []int64 {
	out := make([]int64, len(agents))
	for i, a := range agents {
		out[i] = a.ID
	}
	return out
}
