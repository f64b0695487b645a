// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/mapforge/internal/logging"
)

// testService blocks until canceled, or fails immediately when failErr is set.
type testService struct {
	name    string
	failErr error
	starts  atomic.Int32
	started chan struct{}
}

func newTestService(name string) *testService {
	return &testService{name: name, started: make(chan struct{}, 16)}
}

func (s *testService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if s.failErr != nil {
		return s.failErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *testService) String() string { return s.name }

func testLogger() *slog.Logger {
	return logging.NewSlogLogger("supervisor-test")
}

func TestNewSupervisorTree_AppliesDefaults(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if got := tree.Config(); got != DefaultTreeConfig() {
		t.Errorf("Config() = %+v, want %+v", got, DefaultTreeConfig())
	}
	if tree.Root() == nil {
		t.Error("Root() = nil")
	}
}

func TestNewSupervisorTree_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := TreeConfig{FailureThreshold: 2, FailureDecay: 1, FailureBackoff: time.Second, ShutdownTimeout: time.Second}
	tree, err := NewSupervisorTree(testLogger(), cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Config() != cfg {
		t.Errorf("Config() = %+v, want %+v", tree.Config(), cfg)
	}
}

func TestSupervisorTree_RunsBothLayers(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	hub := newTestService("hub")
	api := newTestService("http")
	tree.AddSessionService(hub)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*testService{hub, api} {
		select {
		case <-svc.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s was not started", svc.name)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("ServeBackground() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestSupervisorTree_SessionCrashDoesNotRestartAPI(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 100,
		FailureBackoff:   time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	hub := newTestService("hub")
	hub.failErr = errors.New("crash")
	api := newTestService("http")
	tree.AddSessionService(hub)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for hub.starts.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	if hub.starts.Load() < 3 {
		t.Errorf("hub started %d times, want restarts", hub.starts.Load())
	}
	if api.starts.Load() != 1 {
		t.Errorf("api started %d times, want 1", api.starts.Load())
	}
}

func TestSupervisorTree_RemoveSessionService(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	svc := newTestService("hub")
	token := tree.AddSessionService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)
	<-svc.started

	if err := tree.RemoveSessionService(token); err != nil {
		t.Errorf("RemoveSessionService() error = %v", err)
	}
	cancel()
	<-errCh
}
