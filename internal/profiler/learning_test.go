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

func TestTrendsFor(t *testing.T) {
	doc := &models.Show{ID: 1, Title: "Nova", Categories: []string{"Science"},
		People: []models.Credit{{Name: "Jane Doe"}, {Name: "John Roe"}}}
	movie := &models.Show{ID: 2, Title: "Heat", ExternalID: "MV0001", Kind: models.KindMovie,
		Categories: []string{"Drama"}}
	bare := &models.Show{ID: 3, Title: "Untitled"}

	tests := []struct {
		name string
		air  *models.Airing
		want int
	}{
		// title+first run, channel+category, network+category, two people,
		// channel+pr, category+pr
		{"first run", &models.Airing{ID: 1, Show: doc, FirstRun: true, Channel: "KQED", Network: "PBS", PR: "TV-G"}, 7},
		{"movie has no title trend", &models.Airing{ID: 2, Show: movie, Channel: "HBO", PR: "R"}, 3},
		{"missing fields are skipped", &models.Airing{ID: 3, Show: bare}, 1},
		{"no show", &models.Airing{ID: 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trendsFor(tt.air)
			if len(got) != tt.want {
				t.Errorf("trendsFor() returned %d trends, want %d", len(got), tt.want)
			}
			for _, a := range got {
				if err := a.Validate(); err != nil {
					t.Errorf("trend %s is invalid: %v", a.Describe(), err)
				}
				if a.IsFavorite() {
					t.Errorf("trend %s is a favorite", a.Describe())
				}
			}
		})
	}
}

func TestReportWatchLearnsTrends(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	putShow(t, st, &models.Show{ID: 1, Title: "Nova", Categories: []string{"Science"},
		People: []models.Credit{{Name: "Jane Doe"}}})
	air := putAiring(t, st, 1, 1, -2*time.Hour, false)

	if err := e.ReportWatch(ctx, air.ID, true, true); err != nil {
		t.Fatalf("ReportWatch() error = %v", err)
	}
	if got := e.Status().WatchCount; got != 1 {
		t.Errorf("WatchCount = %d, want 1", got)
	}
	jobs := e.queue.drain()
	if len(jobs) != 1 || jobs[0].kind != JobWatchReal {
		t.Fatalf("queued jobs = %+v, want one watch_real job", jobs)
	}

	if err := e.applyWatch(ctx, jobs[0].airing); err != nil {
		t.Fatalf("applyWatch() error = %v", err)
	}
	agents, err := st.Agents(ctx)
	if err != nil {
		t.Fatalf("Agents() error = %v", err)
	}
	// title+rerun, channel+category, network+category, person,
	// channel+pr, category+pr
	if len(agents) != 6 {
		t.Errorf("learned %d trends, want 6", len(agents))
	}

	if err := e.applyWatch(ctx, jobs[0].airing); err != nil {
		t.Fatalf("applyWatch() again error = %v", err)
	}
	again, _ := st.Agents(ctx)
	if len(again) != len(agents) {
		t.Errorf("second watch created %d more trends, want 0", len(again)-len(agents))
	}

	watched, err := st.Watched(ctx)
	if err != nil || len(watched) != 1 || !watched[0].Complete {
		t.Errorf("Watched() = %+v, %v, want one complete record", watched, err)
	}

	if err := e.ClearWatch(ctx, air.ID); err != nil {
		t.Fatalf("ClearWatch() error = %v", err)
	}
	if watched, _ := st.Watched(ctx); len(watched) != 0 {
		t.Error("ClearWatch() left the viewing record")
	}
}

func TestApplyWasteAddsTitleTrend(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	putShow(t, st, &models.Show{ID: 1, Title: "Reality Show"})
	air := putAiring(t, st, 1, 1, time.Hour, true)
	air.Show = &models.Show{ID: 1, Title: "Reality Show"}

	for range 2 {
		if err := e.applyWaste(ctx, air); err != nil {
			t.Fatalf("applyWaste() error = %v", err)
		}
	}
	agents, err := st.Agents(ctx)
	if err != nil {
		t.Fatalf("Agents() error = %v", err)
	}
	if len(agents) != 1 || agents[0].Mask != models.MaskTitle|models.MaskFirstRun {
		t.Errorf("agents = %+v, want one title+first-run trend", agents)
	}
}

func TestDontLikeIgnoresNonTV(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	putShow(t, st, &models.Show{ID: 1, Title: "Album", Kind: models.KindMusic})
	air := putAiring(t, st, 1, 1, time.Hour, true)

	if err := e.AddDontLike(ctx, air.ID, true); err != nil {
		t.Fatalf("AddDontLike() error = %v", err)
	}
	if wasted, _ := st.Wasted(ctx); len(wasted) != 0 {
		t.Error("non-television airing was marked wasted")
	}
	if e.queue.len() != 0 {
		t.Error("non-television waste queued a job")
	}
}

func TestDontLikeKeepsManualMark(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	putShow(t, st, &models.Show{ID: 1, Title: "Nova"})
	air := putAiring(t, st, 1, 1, time.Hour, true)

	if err := e.AddDontLike(ctx, air.ID, true); err != nil {
		t.Fatalf("AddDontLike(manual) error = %v", err)
	}
	if err := e.AddDontLike(ctx, air.ID, false); err != nil {
		t.Fatalf("AddDontLike(automatic) error = %v", err)
	}
	w, err := st.WastedFor(ctx, air.ID)
	if err != nil {
		t.Fatalf("WastedFor() error = %v", err)
	}
	if !w.Manual {
		t.Error("automatic report downgraded a manual don't-like")
	}
}

func TestRemoveDontLikeClearsShow(t *testing.T) {
	e, st := newTestEngine(t, nil)
	ctx := context.Background()
	putShow(t, st, &models.Show{ID: 1, Title: "Nova", DontLike: true})
	air := putAiring(t, st, 1, 1, time.Hour, true)

	if err := e.RemoveDontLike(ctx, air.ID); err != nil {
		t.Fatalf("RemoveDontLike() error = %v", err)
	}
	show, err := st.Show(ctx, 1)
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if show.DontLike {
		t.Error("show is still marked don't-like")
	}
}

func TestTrendEstimator(t *testing.T) {
	nova := &models.Show{ID: 1, Title: "Nova"}
	watched := []*models.Airing{{ID: 1, Show: nova, Channel: "KQED"}, {ID: 2, Show: nova, Channel: "KQED"}}
	wasted := []*models.Airing{{ID: 3, Show: nova, Channel: "KTVU"}}
	h := &History{Watched: watched, Wasted: wasted}

	tests := []struct {
		name    string
		agent   *models.Agent
		want    float64
		wantErr error
	}{
		{"favorite", &models.Agent{Mask: models.MaskLove | models.MaskTitle, Title: "Nova"}, 1, nil},
		{"negator", &models.Agent{Mask: models.MaskDontLike | models.MaskTitle, Title: "Nova"}, -1, nil},
		{"no evidence", &models.Agent{Mask: models.MaskTitle, Title: "Other"}, 0, nil},
		{"watched twice", &models.Agent{Mask: models.MaskChannel, Channel: "KQED"}, 0.6, nil},
		{"mostly wasted", &models.Agent{Mask: models.MaskChannel, Channel: "KTVU"}, -1, nil},
		{"invalid", &models.Agent{Mask: models.MaskTitle}, 0, ErrTraitor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TrendEstimator{}.Estimate(tt.agent, h)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Estimate() error = %v, want %v", err, tt.wantErr)
			}
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Estimate() = %v, want %v", got, tt.want)
			}
		})
	}
}
