// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/mutation"
	"github.com/tomtom215/mapforge/internal/scene"
	"github.com/tomtom215/mapforge/internal/timeline"
)

var (
	// ErrClosed is returned by Send after the loop has exited.
	ErrClosed = errors.New("session closed")

	// ErrBacklog is returned by Send when the inbound queue is full.
	ErrBacklog = errors.New("session inbound queue full")
)

// Config holds per-session settings.
type Config struct {
	Interaction interaction.Config

	// LegacyFrame converts percent coordinates of legacy records.
	LegacyFrame models.LegacyFrame

	// TimelineDebounce delays current-time saves. Default: 500ms
	TimelineDebounce time.Duration

	// SaveTimeout bounds each persistence call. Default: 15s
	SaveTimeout time.Duration

	// LoadTimeout bounds the initial fetch. Default: 30s
	LoadTimeout time.Duration

	// InboundQueue and OutboundQueue size the message buffers. Default: 256
	InboundQueue  int
	OutboundQueue int
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		Interaction:      interaction.DefaultConfig(),
		LegacyFrame:      models.DefaultLegacyFrame,
		TimelineDebounce: timeline.DefaultDebounce,
		SaveTimeout:      15 * time.Second,
		LoadTimeout:      30 * time.Second,
		InboundQueue:     256,
		OutboundQueue:    256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LegacyFrame.Width <= 0 || c.LegacyFrame.Height <= 0 {
		c.LegacyFrame = d.LegacyFrame
	}
	if c.TimelineDebounce <= 0 {
		c.TimelineDebounce = d.TimelineDebounce
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = d.SaveTimeout
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = d.LoadTimeout
	}
	if c.InboundQueue <= 0 {
		c.InboundQueue = d.InboundQueue
	}
	if c.OutboundQueue <= 0 {
		c.OutboundQueue = d.OutboundQueue
	}
	return c
}

// Session is one open map view.
type Session struct {
	id      string
	mapID   int64
	cfg     Config
	backend backend.Backend
	guard   *guard.Guard
	logger  zerolog.Logger

	machine  *interaction.Machine
	pipeline *mutation.Pipeline
	saver    *timeline.Saver
	report   scene.LoadReport

	inbound     chan ClientMessage
	completions chan func()
	stop        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once

	// lateMu serializes completions that arrive after the loop has exited.
	lateMu sync.Mutex

	outMu     sync.Mutex
	out       chan Envelope
	outClosed bool
}

// New creates a session for mapID. Call Load, then Run.
func New(mapID int64, b backend.Backend, g *guard.Guard, cfg Config) *Session {
	cfg = cfg.withDefaults()
	if g == nil {
		g = guard.New(guard.DefaultConfig())
	}

	id := uuid.NewString()
	s := &Session{
		id:          id,
		mapID:       mapID,
		cfg:         cfg,
		backend:     b,
		guard:       g,
		logger:      logging.WithComponent("session").With().Str("session_id", id).Int64("map_id", mapID).Logger(),
		inbound:     make(chan ClientMessage, cfg.InboundQueue),
		completions: make(chan func()),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		out:         make(chan Envelope, cfg.OutboundQueue),
	}

	s.pipeline = mutation.New(mutation.Config{
		MapID:       mapID,
		Timeout:     cfg.SaveTimeout,
		LegacyFrame: cfg.LegacyFrame,
	}, mutation.Options{
		Events:   b,
		Overlays: b,
		Guard:    g,
		Dispatch: s.dispatch,
		Notify:   s.notify,
	})
	s.machine = interaction.NewMachine(cfg.Interaction, g, s.pipeline)
	s.pipeline.SetStore(machineStore{s.machine})
	s.saver = timeline.NewSaver(b, mapID, cfg.TimelineDebounce)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// MapID returns the map this session shows.
func (s *Session) MapID() int64 { return s.mapID }

// Report returns the outcome of Load.
func (s *Session) Report() scene.LoadReport { return s.report }

// Outbound returns the channel frames and notices are delivered on. It is
// closed when the loop exits.
func (s *Session) Outbound() <-chan Envelope { return s.out }

// Done is closed when the loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Load fetches nodes, the overlay image and timeline settings concurrently.
// Only a failure to list nodes is fatal; a missing overlay or timeline leaves
// the feature off.
func (s *Session) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	var (
		records  []models.EventRecord
		overlay  *models.OverlayImage
		settings = models.TimelineSettings{MapID: s.mapID}
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.backend.ListEvents(gctx, s.mapID)
		metrics.RecordPersistence(backend.OpListEvents, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("list events for map %d: %w", s.mapID, err)
		}
		return nil
	})
	g.Go(func() error {
		rec, err := s.backend.GetOverlay(gctx, s.mapID)
		switch {
		case errors.Is(err, backend.ErrNotFound):
		case err != nil:
			s.logger.Warn().Err(err).Msg("Failed to load timeline image, alignment disabled")
		default:
			o := rec.Overlay()
			overlay = &o
		}
		return nil
	})
	g.Go(func() error {
		ts, err := s.backend.GetTimeline(gctx, s.mapID)
		switch {
		case errors.Is(err, backend.ErrNotFound):
		case err != nil:
			s.logger.Warn().Err(err).Msg("Failed to load timeline settings, timeline disabled")
		default:
			settings = ts
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	nodes, report := scene.DecodeRecords(records, s.cfg.LegacyFrame, s.guard)
	s.report = report
	s.machine.Nodes().Reset(nodes)
	if overlay != nil {
		s.machine.SetOverlayImage(*overlay)
	}
	s.machine.SetTimelineWindow(timeline.WindowFromSettings(settings))

	s.logger.Info().
		Int("nodes", report.Loaded).
		Int("recovered", report.Recovered).
		Int("unknown_kind", report.UnknownKind).
		Int("skipped", report.Skipped).
		Bool("overlay", overlay != nil).
		Dur("duration", time.Since(start)).
		Msg("Map loaded")
	return nil
}

// Send queues a client message. It never blocks.
func (s *Session) Send(msg ClientMessage) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbound <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	default:
		return ErrBacklog
	}
}

// Close asks the loop to exit. It does not wait.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Run processes messages until ctx is canceled or Close is called. Pending
// timeline saves are flushed on exit.
func (s *Session) Run(ctx context.Context) error {
	metrics.TrackSession(true)
	defer metrics.TrackSession(false)
	defer s.shutdown()

	s.logger.Debug().Msg("Session loop started")
	s.emitFrame()

	for {
		// Completions first so rollbacks land before further input.
		select {
		case f := <-s.completions:
			f()
			s.emitFrame()
			continue
		default:
		}

		select {
		case <-ctx.Done():
			s.logger.Debug().Str("reason", ctx.Err().Error()).Msg("Session loop stopping")
			return nil
		case <-s.stop:
			s.logger.Debug().Msg("Session loop closed")
			return nil
		case f := <-s.completions:
			f()
			s.emitFrame()
		case msg := <-s.inbound:
			if s.handle(&msg) {
				s.emitFrame()
			}
		}
	}
}

func (s *Session) shutdown() {
	close(s.done)
	s.saver.Close()

	s.outMu.Lock()
	s.outClosed = true
	close(s.out)
	s.outMu.Unlock()
}

// dispatch runs f on the loop goroutine, or inline once the loop has exited.
func (s *Session) dispatch(f func()) {
	select {
	case s.completions <- f:
	case <-s.done:
		s.lateMu.Lock()
		defer s.lateMu.Unlock()
		f()
	}
}

// Wait blocks until every save started so far has resolved.
func (s *Session) Wait() {
	s.pipeline.Wait()
}

// Sync returns once every message sent before it has been handled and every
// save it triggered has resolved and been rendered.
func (s *Session) Sync(ctx context.Context) error {
	if err := s.call(ctx, func() {}); err != nil {
		return err
	}
	s.pipeline.Wait()
	return s.call(ctx, func() {})
}

// Snapshot returns the current frame as built on the loop.
func (s *Session) Snapshot(ctx context.Context) (Frame, error) {
	var f Frame
	err := s.call(ctx, func() { f = s.buildFrame() })
	return f, err
}

func (s *Session) call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	msg := ClientMessage{call: func() {
		fn()
		close(ran)
	}}
	select {
	case s.inbound <- msg:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) notify(n mutation.Notice) {
	s.emit(Envelope{Type: EnvelopeNotice, Data: n})
}

func (s *Session) emitFrame() {
	s.emit(Envelope{Type: EnvelopeFrame, Data: s.buildFrame()})
}

// emit queues env for the client. When the client falls behind the oldest
// queued envelope is dropped.
func (s *Session) emit(env Envelope) {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	if s.outClosed {
		return
	}
	select {
	case s.out <- env:
		return
	default:
	}
	select {
	case <-s.out:
		metrics.WSMessagesDropped.Inc()
	default:
	}
	select {
	case s.out <- env:
	default:
		metrics.WSMessagesDropped.Inc()
	}
}
