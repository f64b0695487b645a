// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/session"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type frameData struct {
	Viewport struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"viewport"`
	Ready bool `json:"ready"`
	Nodes []struct {
		ID int64 `json:"id"`
	} `json:"nodes"`
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func newServer(t *testing.T, hub *Hub, mem *backend.Memory) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.New(1, mem, nil, session.Config{})
		if err := s.Load(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, s)
		if !hub.Register(client) {
			_ = conn.Close()
			return
		}
		client.Start()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads envelopes until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v while waiting for %q", err, typ)
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("invalid envelope %s: %v", data, err)
		}
		if env.Type == typ {
			return env
		}
	}
}

func writeJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_FrameRoundTrip(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	x, y := 500.0, 500.0
	mem.AddEvent(models.EventRecord{ID: 7, MapID: 1, XPixel: &x, YPixel: &y, NodeType: "info"})

	hub, _ := startHub(t)
	conn := dial(t, newServer(t, hub, mem))

	first := readUntil(t, conn, session.EnvelopeFrame)
	var f frameData
	if err := json.Unmarshal(first.Data, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if f.Ready {
		t.Error("first frame ready before resize")
	}
	if len(f.Nodes) != 1 || f.Nodes[0].ID != 7 {
		t.Errorf("nodes = %+v, want node 7", f.Nodes)
	}

	writeJSON(t, conn, map[string]interface{}{"type": "resize", "width": 800, "height": 600})
	env := readUntil(t, conn, session.EnvelopeFrame)
	if err := json.Unmarshal(env.Data, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if !f.Ready || f.Viewport.Width != 800 || f.Viewport.Height != 600 {
		t.Errorf("frame after resize = %+v", f)
	}

	waitFor(t, func() bool { return hub.GetClientCount() == 1 }, "registration")
	conns := hub.Connections()
	if len(conns) != 1 || conns[0].MapID != 1 || conns[0].SessionID == "" {
		t.Errorf("Connections() = %+v", conns)
	}
}

func TestClient_PingPong(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	conn := dial(t, newServer(t, hub, backend.NewMemory()))

	readUntil(t, conn, session.EnvelopeFrame)
	writeJSON(t, conn, map[string]string{"type": MessageTypePing})
	readUntil(t, conn, MessageTypePong)
}

func TestClient_InvalidMessageGetsError(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	conn := dial(t, newServer(t, hub, backend.NewMemory()))

	readUntil(t, conn, session.EnvelopeFrame)
	writeJSON(t, conn, map[string]string{"type": "explode"})
	readUntil(t, conn, session.EnvelopeError)

	// Garbage is dropped without closing the connection.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	writeJSON(t, conn, map[string]interface{}{"type": "resize", "width": 10, "height": 10})
	readUntil(t, conn, session.EnvelopeFrame)
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	conn := dial(t, newServer(t, hub, backend.NewMemory()))
	readUntil(t, conn, session.EnvelopeFrame)
	waitFor(t, func() bool { return hub.GetClientCount() == 1 }, "registration")

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	waitFor(t, func() bool { return hub.GetClientCount() == 0 }, "unregistration")
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	t.Parallel()

	hub, cancel := startHub(t)
	conn := dial(t, newServer(t, hub, backend.NewMemory()))
	readUntil(t, conn, session.EnvelopeFrame)
	waitFor(t, func() bool { return hub.GetClientCount() == 1 }, "registration")

	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			t.Errorf("read after shutdown = %v, want normal close", err)
		}
		break
	}
	waitFor(t, func() bool { return hub.GetClientCount() == 0 }, "clients cleared after shutdown")
}

func TestHub_RegisterAfterStop(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := hub.RunWithContext(ctx); err != context.Canceled {
		t.Fatalf("RunWithContext() = %v, want context.Canceled", err)
	}

	c := NewClient(hub, nil, session.New(1, backend.NewMemory(), nil, session.Config{}))
	if hub.Register(c) {
		t.Error("Register() = true on a stopped hub")
	}
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: got %q", got)
	}

	ctx2, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	if got := getShutdownReason(ctx2); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: got %q", got)
	}
}
