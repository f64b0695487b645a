// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package guard

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// ErrCorrupted is returned when a position fails the sanity check before a write.
var ErrCorrupted = errors.New("coordinate corrupted")

// Phase names where a coordinate was checked. It labels logs and metrics.
type Phase string

const (
	PhaseDrag   Phase = "drag"
	PhaseLoad   Phase = "load"
	PhaseCommit Phase = "commit"
	PhaseCreate Phase = "create"
)

// Status is the outcome of a sanity check.
type Status int

const (
	// StatusOK means the point is within bounds and finite.
	StatusOK Status = iota
	// StatusRecovered means a replacement point was substituted.
	StatusRecovered
	// StatusRejected means the point must not be used.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRecovered:
		return "recovered"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result carries the check outcome. Point is the input for StatusOK, the
// replacement for StatusRecovered and zero for StatusRejected.
type Result struct {
	Point  viewport.Point
	Status Status
}

// Config controls the corruption threshold and load recovery.
type Config struct {
	// Threshold is the largest accepted absolute coordinate. Default: 10000
	Threshold float64 `koanf:"threshold" validate:"gt=0"`

	// RecoveryCenterX and RecoveryCenterY locate corrupted nodes on load. Default: (500,500)
	RecoveryCenterX float64 `koanf:"recovery_center_x"`
	RecoveryCenterY float64 `koanf:"recovery_center_y"`

	// RecoveryJitter is the half-width of the uniform jitter box. Default: 100
	RecoveryJitter float64 `koanf:"recovery_jitter" validate:"gte=0"`
}

// DefaultConfig returns the standard guard settings.
func DefaultConfig() Config {
	return Config{
		Threshold:       10000,
		RecoveryCenterX: 500,
		RecoveryCenterY: 500,
		RecoveryJitter:  100,
	}
}

// Guard validates world coordinates against a fixed threshold.
// It is safe for concurrent use.
type Guard struct {
	cfg    Config
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Guard with a randomly seeded jitter source.
func New(cfg Config) *Guard {
	return NewWithSource(cfg, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewWithSource creates a Guard whose recovery jitter is drawn from src.
func NewWithSource(cfg Config, src rand.Source) *Guard {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.RecoveryJitter < 0 {
		cfg.RecoveryJitter = 0
	}
	return &Guard{
		cfg:    cfg,
		logger: logging.WithComponent("guard"),
		rng:    rand.New(src),
	}
}

// Valid reports whether p is finite and within the threshold on both axes.
func (g *Guard) Valid(p viewport.Point) bool {
	return p.IsFinite() && math.Abs(p.X) <= g.cfg.Threshold && math.Abs(p.Y) <= g.cfg.Threshold
}

// Check applies the policy for phase. Load recovers, every other phase rejects.
func (g *Guard) Check(phase Phase, p viewport.Point) Result {
	if g.Valid(p) {
		return Result{Point: p, Status: StatusOK}
	}

	metrics.CoordinateCorruptions.WithLabelValues(string(phase)).Inc()
	event := g.logger.Warn().
		Str("phase", string(phase)).
		Float64("x", sanitize(p.X)).
		Float64("y", sanitize(p.Y)).
		Bool("finite", p.IsFinite()).
		Float64("threshold", g.cfg.Threshold)

	if phase == PhaseLoad {
		r := g.recoveryPoint()
		event.Float64("recovered_x", r.X).Float64("recovered_y", r.Y).Msg("Corrupted coordinate recovered")
		return Result{Point: r, Status: StatusRecovered}
	}

	event.Msg("Corrupted coordinate rejected")
	return Result{Status: StatusRejected}
}

// Drag returns p when valid, otherwise lastGood. The caller keeps its last
// known good position and the update is dropped.
func (g *Guard) Drag(p, lastGood viewport.Point) (viewport.Point, bool) {
	if r := g.Check(PhaseDrag, p); r.Status == StatusOK {
		return r.Point, true
	}
	return lastGood, false
}

// Load returns p or a recovery point near the configured center.
func (g *Guard) Load(p viewport.Point) (viewport.Point, bool) {
	r := g.Check(PhaseLoad, p)
	return r.Point, r.Status == StatusRecovered
}

// Commit returns ErrCorrupted when p must not be persisted.
func (g *Guard) Commit(p viewport.Point) error {
	if g.Check(PhaseCommit, p).Status != StatusOK {
		return ErrCorrupted
	}
	return nil
}

// Create returns ErrCorrupted when a new node must not be placed at p.
func (g *Guard) Create(p viewport.Point) error {
	if g.Check(PhaseCreate, p).Status != StatusOK {
		return ErrCorrupted
	}
	return nil
}

func (g *Guard) recoveryPoint() viewport.Point {
	g.mu.Lock()
	defer g.mu.Unlock()

	j := g.cfg.RecoveryJitter
	return viewport.Point{
		X: g.cfg.RecoveryCenterX + (g.rng.Float64()*2-1)*j,
		Y: g.cfg.RecoveryCenterY + (g.rng.Float64()*2-1)*j,
	}
}

// sanitize keeps zerolog from emitting invalid JSON for NaN and Inf.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
