// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package timeline

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
)

// DefaultDebounce is how long the scrubber must rest before the current time is saved.
const DefaultDebounce = 500 * time.Millisecond

// SettingsStore persists the current timeline time of a map.
type SettingsStore interface {
	SaveCurrentTime(ctx context.Context, mapID, current int64) error
}

// Saver debounces current-time saves for one map. Only the last value set
// within the debounce interval is written. It is safe for concurrent use.
type Saver struct {
	store    SettingsStore
	mapID    int64
	debounce time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending int64
	dirty   bool
	closed  bool
	wg      sync.WaitGroup
}

// NewSaver creates a Saver. A non-positive debounce uses DefaultDebounce.
func NewSaver(store SettingsStore, mapID int64, debounce time.Duration) *Saver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Saver{
		store:    store,
		mapID:    mapID,
		debounce: debounce,
		timeout:  10 * time.Second,
	}
}

// Schedule records t as the value to save and restarts the debounce timer.
func (s *Saver) Schedule(t int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending = t
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

// Flush saves any pending value immediately and waits for in-flight saves.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.fire()
	s.wg.Wait()
}

// Close flushes and stops accepting new values.
func (s *Saver) Close() {
	s.Flush()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Saver) fire() {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	value := s.pending
	s.dirty = false
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.store.SaveCurrentTime(ctx, s.mapID, value); err != nil {
		metrics.TimelineSaves.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Int64("map_id", s.mapID).Int64("current_time", value).Msg("Failed to save timeline position")
		return
	}
	metrics.TimelineSaves.WithLabelValues("success").Inc()
}
