// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*ProfilerService)(nil)
	_ suture.Service = (*EventRouterService)(nil)
)

// serveAsync runs svc.Serve and returns its result channel.
func serveAsync(ctx context.Context, svc suture.Service) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return errCh
}

func await(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

type fakeHTTPServer struct {
	listenErr error
	started   chan struct{}
	stop      chan struct{}
	shutdowns atomic.Int32
}

func newFakeHTTPServer(listenErr error) *fakeHTTPServer {
	return &fakeHTTPServer{listenErr: listenErr, started: make(chan struct{}), stop: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.started)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return nil
}

func TestHTTPServerService(t *testing.T) {
	t.Run("shuts down on cancel", func(t *testing.T) {
		server := newFakeHTTPServer(nil)
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(ctx, svc)
		<-server.started
		cancel()

		if err := await(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times, want 1", server.shutdowns.Load())
		}
	})

	t.Run("reports bind failure", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		svc := NewHTTPServerService(newFakeHTTPServer(bindErr), time.Second)
		if err := svc.Serve(context.Background()); !errors.Is(err, bindErr) {
			t.Errorf("Serve() = %v, want %v", err, bindErr)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		svc := NewHTTPServerService(newFakeHTTPServer(nil), 0)
		if svc.shutdownTimeout != 10*time.Second || svc.String() != "http-server" {
			t.Errorf("service = %v/%v", svc.String(), svc.shutdownTimeout)
		}
	})
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestProfilerService(t *testing.T) {
	t.Run("returns context error on shutdown", func(t *testing.T) {
		svc := NewProfilerService(runnerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(ctx, svc)
		cancel()
		if err := await(t, errCh); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	})

	t.Run("wraps loop failures", func(t *testing.T) {
		boom := errors.New("store closed")
		svc := NewProfilerService(runnerFunc(func(context.Context) error { return boom }))
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Serve() = %v, want wrapped %v", err, boom)
		}
		if svc.String() != "profiler-coordinator" {
			t.Errorf("String() = %q", svc.String())
		}
	})
}

type fakeRouter struct {
	runErr error
	closed atomic.Int32
	done   chan struct{}
}

func (r *fakeRouter) Run(ctx context.Context) error {
	if r.runErr != nil {
		return r.runErr
	}
	select {
	case <-ctx.Done():
	case <-r.done:
	}
	return nil
}

func (r *fakeRouter) Close() error {
	if r.closed.Add(1) == 1 {
		close(r.done)
	}
	return nil
}

func TestEventRouterService(t *testing.T) {
	t.Run("builds a fresh router per Serve", func(t *testing.T) {
		var built []*fakeRouter
		svc := NewEventRouterService(func() (EventRouter, error) {
			r := &fakeRouter{done: make(chan struct{})}
			built = append(built, r)
			return r, nil
		}, time.Second)

		for range 2 {
			ctx, cancel := context.WithCancel(context.Background())
			errCh := serveAsync(ctx, svc)
			cancel()
			if err := await(t, errCh); !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		}
		if len(built) != 2 {
			t.Fatalf("routers built = %d, want 2", len(built))
		}
		for i, r := range built {
			if r.closed.Load() == 0 {
				t.Errorf("router %d not closed", i)
			}
		}
	})

	t.Run("factory failure", func(t *testing.T) {
		boom := errors.New("nats: no servers available")
		svc := NewEventRouterService(func() (EventRouter, error) { return nil, boom }, time.Second)
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Serve() = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("router failure", func(t *testing.T) {
		boom := errors.New("subscribe failed")
		svc := NewEventRouterService(func() (EventRouter, error) {
			return &fakeRouter{runErr: boom, done: make(chan struct{})}, nil
		}, time.Second)
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Serve() = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("restarted by supervisor", func(t *testing.T) {
		var builds atomic.Int32
		svc := NewEventRouterService(func() (EventRouter, error) {
			if builds.Add(1) == 1 {
				return &fakeRouter{runErr: errors.New("first run fails"), done: make(chan struct{})}, nil
			}
			return &fakeRouter{done: make(chan struct{})}, nil
		}, time.Second)

		sup := suture.New("test-sup", suture.Spec{
			FailureThreshold: 3,
			FailureBackoff:   10 * time.Millisecond,
			Timeout:          time.Second,
		})
		sup.Add(svc)
		ctx, cancel := context.WithCancel(context.Background())
		errCh := sup.ServeBackground(ctx)

		deadline := time.Now().Add(2 * time.Second)
		for builds.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
		<-errCh
		if builds.Load() < 2 {
			t.Errorf("router built %d times, want a restart", builds.Load())
		}
	})
}
