// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/validation"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// ErrSaveAborted is reported when a save is dropped before reaching the
// backend because its coordinates failed the sanity check.
var ErrSaveAborted = errors.New("save aborted")

// Operation names used in metrics and notices.
const (
	OpUpdateNode    = "update_node"
	OpCreateNode    = "create_node"
	OpUpdateOverlay = "update_overlay"
)

// Store is the local state the pipeline reconciles. All methods are called
// from the dispatch function and never concurrently.
type Store interface {
	NodePosition(id int64) (viewport.Point, bool)
	SetNodePosition(id int64, p viewport.Point) bool
	AppendNode(n models.Node)
	OverlayPlacement(id int64) (models.OverlayUpdate, bool)
	RestoreOverlay(id int64, placement models.OverlayUpdate) bool
}

// Notice is a transient user-visible message about a persistence outcome.
type Notice struct {
	Level    string `json:"level"`
	Op       string `json:"op"`
	EntityID int64  `json:"entity_id,omitempty"`
	Message  string `json:"message"`
}

// Config holds pipeline settings.
type Config struct {
	MapID int64

	// Timeout bounds each backend call. Default: 15s
	Timeout time.Duration

	// LegacyFrame converts legacy coordinates in created records.
	LegacyFrame models.LegacyFrame
}

// Pipeline applies optimistic node and overlay changes and persists them in
// the background. Completions are handed to dispatch so local state is only
// touched from the caller's event loop.
type Pipeline struct {
	cfg      Config
	events   backend.EventService
	overlays backend.OverlayService
	guard    *guard.Guard
	store    Store
	dispatch func(func())
	notify   func(Notice)
	logger   zerolog.Logger

	nodeQueue    *keyedQueue[viewport.Point]
	overlayQueue *keyedQueue[models.OverlayUpdate]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ interaction.Committer = (*Pipeline)(nil)

// Options wires a Pipeline to its collaborators.
type Options struct {
	Events   backend.EventService
	Overlays backend.OverlayService
	Guard    *guard.Guard
	Store    Store

	// Dispatch runs a completion on the goroutine that owns Store. Nil runs
	// completions inline on the worker goroutine.
	Dispatch func(func())

	// Notify receives notices. Nil discards them.
	Notify func(Notice)
}

// New creates a Pipeline.
func New(cfg Config, opts Options) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.LegacyFrame.Width <= 0 || cfg.LegacyFrame.Height <= 0 {
		cfg.LegacyFrame = models.DefaultLegacyFrame
	}
	if opts.Guard == nil {
		opts.Guard = guard.New(guard.DefaultConfig())
	}
	if opts.Dispatch == nil {
		var mu sync.Mutex
		opts.Dispatch = func(f func()) {
			mu.Lock()
			defer mu.Unlock()
			f()
		}
	}
	if opts.Notify == nil {
		opts.Notify = func(Notice) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		cfg:          cfg,
		events:       opts.Events,
		overlays:     opts.Overlays,
		guard:        opts.Guard,
		store:        opts.Store,
		dispatch:     opts.Dispatch,
		notify:       opts.Notify,
		logger:       logging.WithComponent("mutation").With().Int64("map_id", cfg.MapID).Logger(),
		nodeQueue:    newKeyedQueue[viewport.Point](),
		overlayQueue: newKeyedQueue[models.OverlayUpdate](),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetStore replaces the local state target. Call before the first commit.
func (p *Pipeline) SetStore(s Store) { p.store = s }

// Wait blocks until every started save has completed and been dispatched.
func (p *Pipeline) Wait() { p.wg.Wait() }

// Close cancels in-flight backend calls. Their completions still run and
// roll back as failures.
func (p *Pipeline) Close() { p.cancel() }

// CommitNodePosition persists a node moved from -> to. The local position
// must already be to.
//
// A failed save rolls the node back to from. Saves for one node run one at a
// time, and a commit made while another is in flight waits as the pending
// save, replacing any earlier pending one. If the save it waits on fails,
// the pending save's rollback target becomes the last position the server
// confirmed instead of its own from, which the server never held.
func (p *Pipeline) CommitNodePosition(id int64, from, to viewport.Point) {
	if err := p.guard.Commit(to); err != nil {
		metrics.RecordAbortedSave(OpUpdateNode)
		p.logger.Warn().Err(fmt.Errorf("%w: %w", ErrSaveAborted, err)).Int64("node_id", id).Msg("Node save aborted")
		p.revertNode(saveJob[viewport.Point]{id: id, from: from, to: to})
		return
	}

	job := saveJob[viewport.Point]{id: id, from: from, to: to}
	start, coalesced := p.nodeQueue.submit(job)
	if coalesced {
		metrics.PersistenceCoalesced.WithLabelValues(OpUpdateNode).Inc()
	}
	if start {
		p.startNode(job)
	}
}

func (p *Pipeline) startNode(job saveJob[viewport.Point]) {
	p.wg.Add(1)
	go func() {
		err := p.timed(OpUpdateNode, func(ctx context.Context) error {
			return p.events.UpdateEvent(ctx, job.id, models.NewNodeUpdate(job.to))
		})
		p.dispatch(func() {
			defer p.wg.Done()
			p.completeNode(job, err)
		})
	}()
}

func (p *Pipeline) completeNode(job saveJob[viewport.Point], err error) {
	if err != nil {
		p.logger.Warn().Err(err).Int64("node_id", job.id).Msg("Node save failed")
		if p.revertNode(job) {
			metrics.Rollbacks.WithLabelValues("node").Inc()
		}
		p.notify(Notice{
			Level:    "error",
			Op:       OpUpdateNode,
			EntityID: job.id,
			Message:  "Could not save node position: " + backend.UserMessage(err),
		})
	}

	if next, ok := p.nodeQueue.complete(job, err != nil); ok {
		p.startNode(next)
	}
}

// revertNode restores job.from unless the node has moved on since job.to.
func (p *Pipeline) revertNode(job saveJob[viewport.Point]) bool {
	if p.store == nil {
		return false
	}
	current, ok := p.store.NodePosition(job.id)
	if !ok || current != job.to {
		return false
	}
	return p.store.SetNodePosition(job.id, job.from)
}

// CommitOverlay persists an overlay placement. restore is applied on failure.
func (p *Pipeline) CommitOverlay(overlay models.OverlayImage, restore models.OverlayUpdate) {
	job := saveJob[models.OverlayUpdate]{id: overlay.ID, from: restore, to: overlay.Placement()}
	start, coalesced := p.overlayQueue.submit(job)
	if coalesced {
		metrics.PersistenceCoalesced.WithLabelValues(OpUpdateOverlay).Inc()
	}
	if start {
		p.startOverlay(job)
	}
}

func (p *Pipeline) startOverlay(job saveJob[models.OverlayUpdate]) {
	p.wg.Add(1)
	go func() {
		err := p.timed(OpUpdateOverlay, func(ctx context.Context) error {
			return p.overlays.UpdateOverlay(ctx, job.id, job.to)
		})
		p.dispatch(func() {
			defer p.wg.Done()
			p.completeOverlay(job, err)
		})
	}()
}

func (p *Pipeline) completeOverlay(job saveJob[models.OverlayUpdate], err error) {
	if err != nil {
		p.logger.Warn().Err(err).Int64("overlay_id", job.id).Msg("Overlay save failed")
		if p.store != nil {
			if current, ok := p.store.OverlayPlacement(job.id); ok && current == job.to {
				p.store.RestoreOverlay(job.id, job.from)
				metrics.Rollbacks.WithLabelValues("overlay").Inc()
			}
		}
		p.notify(Notice{
			Level:    "error",
			Op:       OpUpdateOverlay,
			EntityID: job.id,
			Message:  "Could not save overlay alignment: " + backend.UserMessage(err),
		})
	}

	if next, ok := p.overlayQueue.complete(job, err != nil); ok {
		p.startOverlay(next)
	}
}

// CreateNode creates a default node at world. Nothing is added locally until
// the backend returns the stored record.
func (p *Pipeline) CreateNode(world viewport.Point) {
	if err := p.guard.Create(world); err != nil {
		metrics.RecordAbortedSave(OpCreateNode)
		return
	}

	draft := models.NewDraft(p.cfg.MapID, world)
	if err := validation.ValidateStruct(&draft); err != nil {
		p.logger.Warn().Err(err).Msg("Invalid node draft")
		p.notify(Notice{Level: "error", Op: OpCreateNode, Message: "Could not create node: " + err.Error()})
		return
	}

	p.wg.Add(1)
	go func() {
		var rec models.EventRecord
		err := p.timed(OpCreateNode, func(ctx context.Context) error {
			var err error
			rec, err = p.events.CreateEvent(ctx, draft)
			return err
		})
		p.dispatch(func() {
			defer p.wg.Done()
			p.completeCreate(&rec, err)
		})
	}()
}

func (p *Pipeline) completeCreate(rec *models.EventRecord, err error) {
	if err != nil {
		p.logger.Warn().Err(err).Msg("Node create failed")
		p.notify(Notice{Level: "error", Op: OpCreateNode, Message: "Could not create node: " + backend.UserMessage(err)})
		return
	}

	node, decodeErr := models.DecodeNode(rec, p.cfg.LegacyFrame)
	if decodeErr != nil && !errors.Is(decodeErr, models.ErrUnknownKind) {
		p.logger.Error().Err(decodeErr).Int64("node_id", rec.ID).Msg("Created node could not be decoded")
		p.notify(Notice{Level: "error", Op: OpCreateNode, EntityID: rec.ID, Message: "Node created but could not be displayed"})
		return
	}
	if pos, recovered := p.guard.Load(node.Position); recovered {
		node.Position = pos
	}
	if p.store != nil {
		p.store.AppendNode(node)
	}
}

// timed runs fn with the call timeout and records metrics.
func (p *Pipeline) timed(op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.RecordPersistence(op, time.Since(start), err)
	return err
}
