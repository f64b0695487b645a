// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/mutation"
	"github.com/tomtom215/mapforge/internal/viewport"
)

const testMap = 1

func ptr[T any](v T) *T { return &v }

func addNode(mem *backend.Memory, id int64, x, y float64) {
	mem.AddEvent(models.EventRecord{ID: id, MapID: testMap, XPixel: ptr(x), YPixel: ptr(y), NodeType: "info", Title: "node"})
}

func startSession(t *testing.T, mem *backend.Memory, cfg Config) *Session {
	t.Helper()

	s := New(testMap, mem, nil, cfg)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s
}

func send(t *testing.T, s *Session, msgs ...ClientMessage) {
	t.Helper()
	for _, m := range msgs {
		if err := s.Send(m); err != nil {
			t.Fatalf("Send(%s) error = %v", m.Type, err)
		}
	}
}

func syncSession(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func snapshot(t *testing.T, s *Session) Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return f
}

// drain returns every envelope queued so far.
func drain(s *Session) []Envelope {
	var out []Envelope
	for {
		select {
		case env, ok := <-s.Outbound():
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func editReady() []ClientMessage {
	return []ClientMessage{
		{Type: MsgResize, Width: 800, Height: 600},
		{Type: MsgSetMode, Mode: "edit"},
	}
}

func TestSession_DragPersistsFinalPosition(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	addNode(mem, 1, 500, 500)
	s := startSession(t, mem, Config{})

	send(t, s, editReady()...)
	send(t, s,
		ClientMessage{Type: MsgPointerDown, X: 400, Y: 300},
		ClientMessage{Type: MsgPointerMove, X: 475, Y: 400},
		ClientMessage{Type: MsgPointerMove, X: 550, Y: 500},
		ClientMessage{Type: MsgPointerUp, X: 550, Y: 500},
	)
	syncSession(t, s)

	f := snapshot(t, s)
	if len(f.Nodes) != 1 || f.Nodes[0].World != (viewport.Point{X: 650, Y: 700}) {
		t.Fatalf("nodes = %+v, want node 1 at {650 700}", f.Nodes)
	}
	if f.Gesture != "none" {
		t.Errorf("gesture = %q, want none", f.Gesture)
	}

	calls := mem.Calls()
	if len(calls) != 1 || calls[0].Op != backend.OpUpdateEvent {
		t.Fatalf("calls = %+v, want one update", calls)
	}
	if got := calls[0].Update; got != (models.NodeUpdate{XPixel: 650, YPixel: 700}) {
		t.Errorf("update = %+v, want {650 700}", got)
	}
}

func TestSession_FailedSaveRollsBackWithNotice(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	addNode(mem, 1, 500, 500)
	mem.FailNext(backend.OpUpdateEvent, &backend.StatusError{Op: "update event", Code: http.StatusInternalServerError, Message: "database unavailable"})
	s := startSession(t, mem, Config{})

	send(t, s, editReady()...)
	send(t, s,
		ClientMessage{Type: MsgPointerDown, X: 400, Y: 300},
		ClientMessage{Type: MsgPointerUp, X: 450, Y: 300},
	)
	syncSession(t, s)

	f := snapshot(t, s)
	if got := f.Nodes[0].World; got != (viewport.Point{X: 500, Y: 500}) {
		t.Errorf("node after failed save = %+v, want rolled back to {500 500}", got)
	}

	var notice *mutation.Notice
	for _, env := range drain(s) {
		if env.Type == EnvelopeNotice {
			n := env.Data.(mutation.Notice)
			notice = &n
		}
	}
	if notice == nil {
		t.Fatal("no notice emitted for failed save")
	}
	if notice.Level != "error" || notice.EntityID != 1 {
		t.Errorf("notice = %+v", notice)
	}
}

func TestSession_LoadRecoversAndDefaults(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	addNode(mem, 1, 100, 100)
	addNode(mem, 2, 25000, 100)
	mem.AddEvent(models.EventRecord{ID: 3, MapID: testMap, X: ptr(50.0), Y: ptr(25.0), NodeType: "npc"})
	mem.AddEvent(models.EventRecord{ID: 4, MapID: testMap, NodeType: "info"})
	mem.AddEvent(models.EventRecord{ID: 5, MapID: 2, XPixel: ptr(1.0), YPixel: ptr(1.0)})

	s := New(testMap, mem, nil, Config{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	r := s.Report()
	if r.Loaded != 3 || r.Recovered != 1 || r.Skipped != 1 {
		t.Errorf("report = %+v, want 3 loaded, 1 recovered, 1 skipped", r)
	}

	p, ok := s.machine.Nodes().Position(2)
	if !ok || p.X < 400 || p.X > 600 || p.Y < 400 || p.Y > 600 {
		t.Errorf("recovered node at %+v, want inside [400,600]", p)
	}
	if p, _ := s.machine.Nodes().Position(3); p != (viewport.Point{X: 500, Y: 250}) {
		t.Errorf("legacy node at %+v, want {500 250}", p)
	}
	if s.machine.HasOverlayImage() {
		t.Error("overlay present without a backend record")
	}
	if s.machine.Timeline().Enabled {
		t.Error("timeline enabled without backend settings")
	}
}

func TestSession_LoadFailsWhenEventsUnavailable(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	mem.FailNext(backend.OpListEvents, errors.New("connection refused"))

	s := New(testMap, mem, nil, Config{})
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load() error = nil, want failure")
	}
}

func TestSession_LoadToleratesOverlayFailure(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	addNode(mem, 1, 1, 1)
	mem.FailNext(backend.OpGetOverlay, errors.New("timeout"))

	s := New(testMap, mem, nil, Config{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.machine.HasOverlayImage() {
		t.Error("overlay set after failed fetch")
	}
}

func TestSession_TimelineFiltersAndSaves(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	addNode(mem, 1, 500, 500)
	mem.AddEvent(models.EventRecord{
		ID: 2, MapID: testMap, XPixel: ptr(10.0), YPixel: ptr(10.0), NodeType: "info",
		VisibleFrom: ptr(int64(0)), VisibleTo: ptr(int64(10)),
	})
	mem.SetTimeline(models.TimelineSettings{MapID: testMap, Enabled: true, CurrentTime: 5, MinTime: 0, MaxTime: 100})

	s := startSession(t, mem, Config{TimelineDebounce: 10 * time.Millisecond})

	if f := snapshot(t, s); len(f.Nodes) != 2 {
		t.Fatalf("visible at t=5: %d nodes, want 2", len(f.Nodes))
	}

	send(t, s,
		ClientMessage{Type: MsgSetTimeline, Time: 30},
		ClientMessage{Type: MsgSetTimeline, Time: 50},
	)
	f := snapshot(t, s)
	if len(f.Nodes) != 1 || f.Nodes[0].ID != 1 {
		t.Fatalf("visible at t=50: %+v, want only node 1", f.Nodes)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var saves []int64
		for _, c := range mem.Calls() {
			if c.Op == backend.OpSaveCurrentTime {
				saves = append(saves, c.Time)
			}
		}
		if len(saves) > 0 && saves[len(saves)-1] == 50 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("saved times = %v, want last 50", saves)
		}
		time.Sleep(5 * time.Millisecond)
	}

	send(t, s, ClientMessage{Type: MsgToggleTimeline, Enabled: ptr(false)})
	if f := snapshot(t, s); len(f.Nodes) != 2 {
		t.Errorf("visible with timeline off: %d nodes, want 2", len(f.Nodes))
	}
}

func TestSession_CreateNode(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	s := startSession(t, mem, Config{})

	send(t, s, editReady()...)
	send(t, s,
		ClientMessage{Type: MsgSetAdding, Enabled: ptr(true)},
		ClientMessage{Type: MsgPointerDown, X: 500, Y: 400},
	)
	syncSession(t, s)

	f := snapshot(t, s)
	if f.AddingNode {
		t.Error("adding flag still set after placement")
	}
	if len(f.Nodes) != 1 || f.Nodes[0].World != (viewport.Point{X: 600, Y: 600}) {
		t.Fatalf("nodes = %+v, want one node at {600 600}", f.Nodes)
	}
	if f.Nodes[0].Kind != string(models.KindInfo) {
		t.Errorf("kind = %q, want info", f.Nodes[0].Kind)
	}
}

func TestSession_InvalidMessage(t *testing.T) {
	t.Parallel()

	s := startSession(t, backend.NewMemory(), Config{})
	send(t, s,
		ClientMessage{Type: "teleport"},
		ClientMessage{Type: MsgSetMode},
	)
	syncSession(t, s)

	errs := 0
	for _, env := range drain(s) {
		if env.Type == EnvelopeError {
			errs++
		}
	}
	if errs != 2 {
		t.Errorf("error envelopes = %d, want 2", errs)
	}
}

func TestSession_AlignmentWithoutOverlay(t *testing.T) {
	t.Parallel()

	s := startSession(t, backend.NewMemory(), Config{})
	send(t, s, ClientMessage{Type: MsgEnterAlignment})
	syncSession(t, s)

	if snapshot(t, s).Aligning {
		t.Error("aligning without an overlay image")
	}
	found := false
	for _, env := range drain(s) {
		if env.Type == EnvelopeNotice {
			found = true
		}
	}
	if !found {
		t.Error("no notice for missing overlay image")
	}
}

func TestSession_OverlayAlignment(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	mem.SetOverlay(models.OverlayRecord{ID: 9, MapID: testMap, PositionX: 0, PositionY: 0, Scale: 1, Width: 400, Height: 400})
	s := startSession(t, mem, Config{})

	send(t, s,
		ClientMessage{Type: MsgResize, Width: 800, Height: 600},
		ClientMessage{Type: MsgEnterAlignment},
		ClientMessage{Type: MsgPointerDown, X: 0, Y: 0},
		ClientMessage{Type: MsgPointerUp, X: 100, Y: 50},
	)
	syncSession(t, s)

	f := snapshot(t, s)
	if f.Overlay == nil {
		t.Fatal("overlay missing from frame while aligning")
	}
	if f.Overlay.GridX != 2 || f.Overlay.GridY != 1 {
		t.Errorf("overlay grid = (%v,%v), want (2,1)", f.Overlay.GridX, f.Overlay.GridY)
	}

	calls := mem.Calls()
	if len(calls) != 1 || calls[0].Op != backend.OpUpdateOverlay || calls[0].Overlay.PositionX != 2 {
		t.Errorf("calls = %+v, want one overlay update to x=2", calls)
	}

	send(t, s, ClientMessage{Type: MsgKey, Key: "Escape"})
	if f := snapshot(t, s); f.Aligning || f.Overlay != nil {
		t.Error("Escape did not leave alignment mode")
	}
}

func TestSession_CloseStopsLoop(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	s := New(testMap, mem, nil, Config{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()
	s.Close()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Close")
	}

	if err := s.Send(ClientMessage{Type: MsgResetCamera}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after close = %v, want ErrClosed", err)
	}
	for range s.Outbound() {
	}
}

func TestSession_SendBacklog(t *testing.T) {
	t.Parallel()

	s := New(testMap, backend.NewMemory(), nil, Config{InboundQueue: 1})
	if err := s.Send(ClientMessage{Type: MsgResetCamera}); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	if err := s.Send(ClientMessage{Type: MsgResetCamera}); !errors.Is(err, ErrBacklog) {
		t.Errorf("second Send() = %v, want ErrBacklog", err)
	}
}

func TestSession_FrameProjectsAndMarksOffscreenNodes(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	addNode(mem, 1, 500, 500)
	addNode(mem, 2, 5000, 5000)

	cfg := DefaultConfig()
	cfg.Interaction.Fallback = viewport.Point{X: 10, Y: 20}
	s := startSession(t, mem, cfg)

	f := snapshot(t, s)
	if len(f.Nodes) != 2 {
		t.Fatalf("nodes = %+v, want 2", f.Nodes)
	}
	for _, n := range f.Nodes {
		if n.Screen != (viewport.Point{X: 10, Y: 20}) || n.OnScreen {
			t.Errorf("before layout node %d: screen=%+v on_screen=%v", n.ID, n.Screen, n.OnScreen)
		}
	}

	send(t, s, ClientMessage{Type: MsgResize, Width: 800, Height: 600})
	f = snapshot(t, s)
	if got := f.Nodes[0]; got.Screen != (viewport.Point{X: 400, Y: 300}) || !got.OnScreen {
		t.Errorf("node 1 = %+v, want centered and on screen", got)
	}
	if f.Nodes[1].OnScreen {
		t.Errorf("node 2 at (5000,5000) reported on screen: %+v", f.Nodes[1])
	}
}
