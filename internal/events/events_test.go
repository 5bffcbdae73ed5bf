// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/store"
)

// fakeEngine records the calls intake makes.
type fakeEngine struct {
	mu      sync.Mutex
	calls   []string
	failFor map[int64]error
	seen    chan string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{failFor: map[int64]error{}, seen: make(chan string, 64)}
}

func (f *fakeEngine) record(call string, id int64) error {
	f.mu.Lock()
	err := f.failFor[id]
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	select {
	case f.seen <- call:
	default:
	}
	return err
}

func (f *fakeEngine) ReportWatch(_ context.Context, id int64, confirmed, complete bool) error {
	return f.record(fmt.Sprintf("watch %d %v %v", id, confirmed, complete), id)
}

func (f *fakeEngine) ClearWatch(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("clear %d", id), id)
}

func (f *fakeEngine) AddDontLike(_ context.Context, id int64, manual bool) error {
	return f.record(fmt.Sprintf("waste %d %v", id, manual), id)
}

func (f *fakeEngine) RemoveDontLike(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("unwaste %d", id), id)
}

func (f *fakeEngine) NotifyAiringSwap(oldID, newID int64) {
	_ = f.record(fmt.Sprintf("swap %d %d", oldID, newID), oldID)
}

func (f *fakeEngine) Kick()      { _ = f.record("kick", 0) }
func (f *fakeEngine) Recompute() { _ = f.record("recompute", 0) }

// fakeCatalog records upserts.
type fakeCatalog struct {
	mu                     sync.Mutex
	shows, airings, medias []int64
}

func (c *fakeCatalog) PutShow(_ context.Context, s *models.Show) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shows = append(c.shows, s.ID)
	return nil
}

func (c *fakeCatalog) PutAiring(_ context.Context, a *models.Airing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.airings = append(c.airings, a.ID)
	return nil
}

func (c *fakeCatalog) PutMediaFile(_ context.Context, mf *models.MediaFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.medias = append(c.medias, mf.ID)
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TopicPrefix = "test"
	cfg.RetryMaxRetries = 1
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = time.Millisecond
	cfg.CloseTimeout = time.Second
	return cfg
}

// startRouter runs an intake router on an in-process bus until the test
// ends.
func startRouter(t *testing.T, engine Engine, catalog Catalog) *Bus {
	t.Helper()
	bus := NewInProcessBus(testConfig(), zerolog.Nop())
	r, err := NewRouter(bus, NewIntake(engine, catalog, zerolog.Nop()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = bus.Close()
	})

	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return bus
}

func publishJSON(t *testing.T, bus *Bus, suffix string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	cfg := bus.Config()
	if err := bus.Publisher.Publish(cfg.Topic(suffix), newMessage(data)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func expectCall(t *testing.T, f *fakeEngine, want string) {
	t.Helper()
	select {
	case got := <-f.seen:
		if got != want {
			t.Errorf("engine call = %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestIntakeAppliesEvents(t *testing.T) {
	engine := newFakeEngine()
	bus := startRouter(t, engine, &fakeCatalog{})

	tests := []struct {
		suffix  string
		payload any
		want    string
	}{
		{TopicWatch, models.WatchEvent{AiringID: 7, Confirmed: true}, "watch 7 true false"},
		{TopicWatch, models.WatchEvent{AiringID: 7, Clear: true}, "clear 7"},
		{TopicWaste, models.WasteEvent{AiringID: 8, Manual: true}, "waste 8 true"},
		{TopicWaste, models.WasteEvent{AiringID: 8, Remove: true}, "unwaste 8"},
		{TopicSwap, models.SwapEvent{OldAiringID: 1, NewAiringID: 2}, "swap 1 2"},
		{TopicRecompute, models.RecomputeEvent{Required: true}, "recompute"},
		{TopicRecompute, models.RecomputeEvent{}, "kick"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			publishJSON(t, bus, tt.suffix, tt.payload)
			expectCall(t, engine, tt.want)
		})
	}
}

func TestIntakeDropsBadMessages(t *testing.T) {
	engine := newFakeEngine()
	engine.failFor[99] = fmt.Errorf("load airing 99: %w", store.ErrNotFound)
	bus := startRouter(t, engine, &fakeCatalog{})

	cfg := bus.Config()
	if err := bus.Publisher.Publish(cfg.Topic(TopicWatch), newMessage([]byte("{not json"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	publishJSON(t, bus, TopicSwap, models.SwapEvent{OldAiringID: 3, NewAiringID: 3})

	// Unknown airings reach the engine once and are not retried.
	publishJSON(t, bus, TopicWatch, models.WatchEvent{AiringID: 99})
	expectCall(t, engine, "watch 99 false false")

	// The handler keeps consuming after dropping the messages above.
	publishJSON(t, bus, TopicWatch, models.WatchEvent{AiringID: 5})
	expectCall(t, engine, "watch 5 false false")
}

func TestIntakeRetriesTransientErrors(t *testing.T) {
	engine := newFakeEngine()
	engine.failFor[4] = errors.New("store busy")
	bus := startRouter(t, engine, &fakeCatalog{})

	publishJSON(t, bus, TopicWaste, models.WasteEvent{AiringID: 4})
	// One attempt plus one retry.
	expectCall(t, engine, "waste 4 false")
	expectCall(t, engine, "waste 4 false")
}

func TestIntakeCatalog(t *testing.T) {
	engine := newFakeEngine()
	catalog := &fakeCatalog{}
	bus := startRouter(t, engine, catalog)

	publishJSON(t, bus, TopicCatalog, models.CatalogEvent{
		Shows:      []*models.Show{{ID: 1, Title: "Nova"}},
		Airings:    []*models.Airing{{ID: 10, ShowID: 1}, {ID: 11, ShowID: 1}},
		MediaFiles: []*models.MediaFile{{ID: 100, AiringID: 10, Complete: true, TV: true}},
	})
	expectCall(t, engine, "kick")

	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	if len(catalog.shows) != 1 || len(catalog.airings) != 2 || len(catalog.medias) != 1 {
		t.Errorf("catalog = %d shows, %d airings, %d media files, want 1, 2, 1",
			len(catalog.shows), len(catalog.airings), len(catalog.medias))
	}
}

func TestHandleRecomputeEmptyPayload(t *testing.T) {
	engine := newFakeEngine()
	in := NewIntake(engine, &fakeCatalog{}, zerolog.Nop())
	if err := in.HandleRecompute(message.NewMessage("1", nil)); err != nil {
		t.Fatalf("HandleRecompute() error = %v", err)
	}
	expectCall(t, engine, "kick")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty prefix", func(c *Config) { c.TopicPrefix = "" }, true},
		{"wildcard prefix", func(c *Config) { c.TopicPrefix = "pvr.>" }, true},
		{"zero breaker threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }, true},
		{"nats without url", func(c *Config) { c.NATSEnabled = true; c.NATS.URL = "" }, true},
		{"jetstream without stream", func(c *Config) {
			c.NATSEnabled = true
			c.NATS.JetStream = true
			c.NATS.StreamName = ""
		}, true},
		{"nats", func(c *Config) { c.NATSEnabled = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDurableName(t *testing.T) {
	if got := durableName("marquee-intake", "marquee.watch"); got != "marquee-intake-marquee-watch" {
		t.Errorf("durableName() = %q", got)
	}
}
