// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package api

import (
	"context"
	"errors"
	"io"
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
	ws "github.com/tomtom215/mapforge/internal/websocket"
)

type response struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

// openBackend reports an open circuit.
type openBackend struct {
	*backend.Memory
}

func (openBackend) State() string { return "open" }

func startHub(t *testing.T) *ws.Hub {
	t.Helper()
	hub := ws.NewHub()
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
	return hub
}

func newTestServer(t *testing.T, b backend.Backend, mw *ChiMiddlewareConfig) (*httptest.Server, *ws.Hub) {
	t.Helper()
	hub := startHub(t)
	h := NewHandler(HandlerConfig{Backend: b, Hub: hub, Version: "test", Session: session.Config{}})
	srv := httptest.NewServer(NewRouter(h, mw).SetupChi())
	t.Cleanup(srv.Close)
	return srv, hub
}

func get(t *testing.T, url string) (*http.Response, response) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var r response
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(body, &r); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp, r
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, backend.NewMemory(), nil)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/health/live", http.StatusOK},
		{"/api/v1/health/ready", http.StatusOK},
		{"/api/v1/health", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body.Status != "success" {
				t.Errorf("body status = %q", body.Status)
			}
			if id := resp.Header.Get("X-Request-ID"); id == "" || id != body.Metadata.RequestID {
				t.Errorf("request id header %q, metadata %q", id, body.Metadata.RequestID)
			}
		})
	}
}

func TestHealthReady_CircuitOpen(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, openBackend{backend.NewMemory()}, nil)

	resp, body := get(t, srv.URL+"/api/v1/health/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if body.Error == nil || body.Error.Code != ErrCodeUnavailable {
		t.Errorf("error = %+v", body.Error)
	}

	_, health := get(t, srv.URL+"/api/v1/health")
	var hs HealthStatus
	if err := json.Unmarshal(health.Data, &hs); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if hs.Status != "degraded" || hs.BackendCircuit != "open" {
		t.Errorf("health = %+v, want degraded with open circuit", hs)
	}
}

func TestMapSession_RequestErrors(t *testing.T) {
	t.Parallel()

	notFound := backend.NewMemory()
	notFound.FailNext(backend.OpListEvents, &backend.StatusError{Op: "list events", Code: http.StatusNotFound, Message: "no such map"})

	down := backend.NewMemory()
	down.FailNext(backend.OpListEvents, errors.New("connection refused"))

	tests := []struct {
		name    string
		backend *backend.Memory
		path    string
		status  int
		code    string
	}{
		{"non numeric id", backend.NewMemory(), "/api/v1/maps/abc/session", http.StatusBadRequest, ErrCodeValidation},
		{"zero id", backend.NewMemory(), "/api/v1/maps/0/session", http.StatusBadRequest, ErrCodeValidation},
		{"missing map", notFound, "/api/v1/maps/4/session", http.StatusNotFound, ErrCodeNotFound},
		{"backend down", down, "/api/v1/maps/4/session", http.StatusBadGateway, ErrCodeUpstream},
		{"unknown route", backend.NewMemory(), "/api/v1/nope", http.StatusNotFound, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newTestServer(t, tt.backend, nil)
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body.Error == nil || body.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", body.Error, tt.code)
			}
		})
	}
}

func TestMapSession_Upgrade(t *testing.T) {
	t.Parallel()

	mem := backend.NewMemory()
	x, y := 10.0, 20.0
	mem.AddEvent(models.EventRecord{ID: 1, MapID: 3, XPixel: &x, YPixel: &y, NodeType: "item"})
	srv, hub := newTestServer(t, mem, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/maps/3/session"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var env struct {
		Type string `json:"type"`
		Data struct {
			Nodes []struct {
				ID   int64  `json:"id"`
				Kind string `json:"kind"`
			} `json:"nodes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != session.EnvelopeFrame || len(env.Data.Nodes) != 1 || env.Data.Nodes[0].Kind != "item" {
		t.Errorf("first message = %s", data)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("session never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, body := get(t, srv.URL+"/api/v1/sessions")
	var conns []ws.ConnectionInfo
	if err := json.Unmarshal(body.Data, &conns); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(conns) != 1 || conns[0].MapID != 3 {
		t.Errorf("sessions = %+v", conns)
	}
}

func TestMapSession_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, backend.NewMemory(), &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://maps.example.com"},
		RateLimitDisabled:  true,
	})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/maps/3/session"

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Dial() with foreign origin succeeded")
	}
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	}

	header.Set("Origin", "https://maps.example.com")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() with allowed origin: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	_ = conn.Close()
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, backend.NewMemory(), &ChiMiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})

	for i := 0; i < 2; i++ {
		if resp, _ := get(t, srv.URL+"/api/v1/sessions"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, resp.StatusCode)
		}
	}
	resp, body := get(t, srv.URL+"/api/v1/sessions")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if body.Error == nil || body.Error.Code != ErrCodeRateLimited {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, backend.NewMemory(), nil)
	get(t, srv.URL+"/api/v1/health/live")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "api_requests_total") {
		t.Errorf("metrics status %d, body missing api_requests_total", resp.StatusCode)
	}
}
