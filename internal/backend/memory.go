// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package backend

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/mapforge/internal/models"
)

// Call records one write received by a Memory backend.
type Call struct {
	Op      string
	ID      int64
	Update  models.NodeUpdate
	Overlay models.OverlayUpdate
	Draft   models.NodeDraft
	Time    int64
}

// Memory is an in-process Backend used by tests and the replay command.
// Failures can be injected per operation. It is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	nextID    int64
	events    map[int64]models.EventRecord
	overlays  map[int64]models.OverlayRecord
	timelines map[int64]models.TimelineSettings
	failures  map[string][]error
	calls     []Call
	latency   time.Duration
	gate      chan struct{}
}

var _ Backend = (*Memory)(nil)

// NewMemory creates an empty backend.
func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		events:    make(map[int64]models.EventRecord),
		overlays:  make(map[int64]models.OverlayRecord),
		timelines: make(map[int64]models.TimelineSettings),
		failures:  make(map[string][]error),
	}
}

// Operation names accepted by FailNext.
const (
	OpListEvents      = "list_events"
	OpCreateEvent     = "create_event"
	OpUpdateEvent     = "update_event"
	OpGetOverlay      = "get_overlay"
	OpUpdateOverlay   = "update_overlay"
	OpGetTimeline     = "get_timeline"
	OpSaveCurrentTime = "save_current_time"
)

// AddEvent stores a record as-is. A zero ID is assigned.
func (m *Memory) AddEvent(rec models.EventRecord) models.EventRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == 0 {
		rec.ID = m.nextID
	}
	if rec.ID >= m.nextID {
		m.nextID = rec.ID + 1
	}
	m.events[rec.ID] = rec
	return rec
}

// SetOverlay stores the overlay record of its map.
func (m *Memory) SetOverlay(rec models.OverlayRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlays[rec.MapID] = rec
}

// SetTimeline stores timeline settings.
func (m *Memory) SetTimeline(s models.TimelineSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timelines[s.MapID] = s
}

// FailNext makes the next call to op return err. Calls queue in order.
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

// SetLatency delays every call by d.
func (m *Memory) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// Hold blocks every call until Release is called.
func (m *Memory) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Release unblocks calls held by Hold.
func (m *Memory) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Calls returns the writes received so far.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Event returns the stored record.
func (m *Memory) Event(id int64) (models.EventRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.events[id]
	return rec, ok
}

// enter applies latency, the hold gate and injected failures for op.
func (m *Memory) enter(ctx context.Context, op string) error {
	m.mu.Lock()
	latency, gate := m.latency, m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if queue := m.failures[op]; len(queue) > 0 {
		m.failures[op] = queue[1:]
		return queue[0]
	}
	return nil
}

func (m *Memory) ListEvents(ctx context.Context, mapID int64) ([]models.EventRecord, error) {
	if err := m.enter(ctx, OpListEvents); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.EventRecord, 0, len(m.events))
	for _, rec := range m.events {
		if rec.MapID == mapID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateEvent(ctx context.Context, draft models.NodeDraft) (models.EventRecord, error) {
	if err := m.enter(ctx, OpCreateEvent); err != nil {
		return models.EventRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	x, y := float64(draft.XPixel), float64(draft.YPixel)
	rec := models.EventRecord{
		ID:       m.nextID,
		MapID:    draft.MapID,
		Title:    draft.Title,
		XPixel:   &x,
		YPixel:   &y,
		Width:    draft.Width,
		Height:   draft.Height,
		NodeType: draft.NodeType,
		Metadata: draft.Metadata,
	}
	m.nextID++
	m.events[rec.ID] = rec
	m.calls = append(m.calls, Call{Op: OpCreateEvent, ID: rec.ID, Draft: draft})
	return rec, nil
}

func (m *Memory) UpdateEvent(ctx context.Context, eventID int64, update models.NodeUpdate) error {
	if err := m.enter(ctx, OpUpdateEvent); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.events[eventID]
	if !ok {
		return &StatusError{Op: "update event", Code: http.StatusNotFound, Message: fmt.Sprintf("event %d not found", eventID)}
	}
	x, y := float64(update.XPixel), float64(update.YPixel)
	rec.XPixel, rec.YPixel = &x, &y
	m.events[eventID] = rec
	m.calls = append(m.calls, Call{Op: OpUpdateEvent, ID: eventID, Update: update})
	return nil
}

func (m *Memory) GetOverlay(ctx context.Context, mapID int64) (models.OverlayRecord, error) {
	if err := m.enter(ctx, OpGetOverlay); err != nil {
		return models.OverlayRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.overlays[mapID]
	if !ok {
		return models.OverlayRecord{}, fmt.Errorf("overlay for map %d: %w", mapID, ErrNotFound)
	}
	return rec, nil
}

func (m *Memory) UpdateOverlay(ctx context.Context, imageID int64, update models.OverlayUpdate) error {
	if err := m.enter(ctx, OpUpdateOverlay); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for mapID, rec := range m.overlays {
		if rec.ID == imageID {
			rec.PositionX, rec.PositionY, rec.Scale = update.PositionX, update.PositionY, update.Scale
			m.overlays[mapID] = rec
			m.calls = append(m.calls, Call{Op: OpUpdateOverlay, ID: imageID, Overlay: update})
			return nil
		}
	}
	return fmt.Errorf("overlay %d: %w", imageID, ErrNotFound)
}

func (m *Memory) GetTimeline(ctx context.Context, mapID int64) (models.TimelineSettings, error) {
	if err := m.enter(ctx, OpGetTimeline); err != nil {
		return models.TimelineSettings{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.timelines[mapID]
	if !ok {
		return models.TimelineSettings{}, fmt.Errorf("timeline for map %d: %w", mapID, ErrNotFound)
	}
	return s, nil
}

func (m *Memory) SaveCurrentTime(ctx context.Context, mapID, current int64) error {
	if err := m.enter(ctx, OpSaveCurrentTime); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.timelines[mapID]
	s.MapID = mapID
	s.CurrentTime = current
	m.timelines[mapID] = s
	m.calls = append(m.calls, Call{Op: OpSaveCurrentTime, ID: mapID, Time: current})
	return nil
}
