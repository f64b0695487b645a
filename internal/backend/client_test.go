// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package backend

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

	"github.com/tomtom215/mapforge/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&Config{URL: server.URL + "/", Timeout: 5 * time.Second})
}

func TestClient_ListEvents(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/maps/12/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `[{"id":1,"map_id":12,"x_pixel":550,"y_pixel":500,"node_type":"npc","metadata":{"character_id":3}},
			{"id":2,"map_id":12,"x":10,"y":20,"node_type":"info","visible_from":1,"visible_to":5}]`)
	})

	records, err := client.ListEvents(context.Background(), 12)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].XPixel == nil || *records[0].XPixel != 550 {
		t.Errorf("record 0 x_pixel = %v", records[0].XPixel)
	}
	if records[1].X == nil || *records[1].X != 10 || records[1].VisibleTo == nil {
		t.Errorf("record 1 = %+v", records[1])
	}
}

func TestClient_UpdateEventSendsWholePixels(t *testing.T) {
	t.Parallel()

	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/events/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.UpdateEvent(context.Background(), 7, models.NodeUpdate{XPixel: 550, YPixel: 500}); err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}
	if body["x_pixel"] != float64(550) || body["y_pixel"] != float64(500) {
		t.Errorf("body = %v", body)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		notFound    bool
	}{
		{"json error", http.StatusBadRequest, `{"error":"x_pixel out of range"}`, "x_pixel out of range", false},
		{"json message", http.StatusInternalServerError, `{"message":"db locked"}`, "db locked", false},
		{"plain text", http.StatusBadGateway, "upstream down\n", "upstream down", false},
		{"not found", http.StatusNotFound, ``, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.GetOverlay(context.Background(), 1)
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *StatusError", err)
			}
			if se.Code != tt.status || se.Message != tt.wantMessage {
				t.Errorf("StatusError = %+v", se)
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v", !tt.notFound, tt.notFound)
			}
		})
	}
}

func TestClient_CreateAndTimeline(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/events":
			var d models.NodeDraft
			_ = json.NewDecoder(r.Body).Decode(&d)
			_, _ = io.WriteString(w, `{"id":99,"map_id":3,"x_pixel":`+itoa(d.XPixel)+`,"y_pixel":`+itoa(d.YPixel)+`,"node_type":"info"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/maps/3/timeline":
			_, _ = io.WriteString(w, `{"map_id":3,"enabled":true,"current_time":5,"min_time":0,"max_time":10}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/maps/3/timeline":
			data, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(data), `"current_time":8`) {
				t.Errorf("timeline body = %s", data)
			}
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	rec, err := client.CreateEvent(ctx, models.NewDraft(3, pointOf(10, 20)))
	if err != nil || rec.ID != 99 || *rec.XPixel != 10 {
		t.Errorf("CreateEvent() = %+v, %v", rec, err)
	}
	s, err := client.GetTimeline(ctx, 3)
	if err != nil || !s.Enabled || s.MaxTime != 10 {
		t.Errorf("GetTimeline() = %+v, %v", s, err)
	}
	if err := client.SaveCurrentTime(ctx, 3, 8); err != nil {
		t.Errorf("SaveCurrentTime() error = %v", err)
	}
}

func TestClient_RateLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, RateLimit: 0.001, RateBurst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := client.UpdateOverlay(ctx, 1, models.OverlayUpdate{}); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	if err := client.UpdateOverlay(ctx, 1, models.OverlayUpdate{}); err == nil {
		t.Error("second call within burst window succeeded, want limiter error")
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	if got := UserMessage(&StatusError{Code: 400, Message: "bad"}); got != "bad" {
		t.Errorf("UserMessage(StatusError) = %q", got)
	}
	if got := UserMessage(ErrCircuitOpen); !strings.Contains(got, "unavailable") {
		t.Errorf("UserMessage(ErrCircuitOpen) = %q", got)
	}
	if UserMessage(nil) != "" {
		t.Error("UserMessage(nil) not empty")
	}
}
