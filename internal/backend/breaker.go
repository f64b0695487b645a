// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package backend

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
	"github.com/tomtom215/mapforge/internal/models"
)

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxRequests allowed while half-open. Default: 3
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval after which closed-state counts reset. Default: 1m
	Interval time.Duration `koanf:"interval"`

	// Timeout before an open circuit goes half-open. Default: 30s
	Timeout time.Duration `koanf:"timeout"`

	// MinRequests before the failure ratio is considered. Default: 10
	MinRequests uint32 `koanf:"min_requests"`

	// FailureRatio at or above which the circuit opens. Default: 0.6
	FailureRatio float64 `koanf:"failure_ratio" validate:"gte=0,lte=1"`
}

// DefaultBreakerConfig returns the standard breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerClient wraps a Backend with a circuit breaker so an unavailable map
// server fails fast instead of stalling every gesture commit.
//
// Client errors (4xx other than 429) are the user's fault, not the server's,
// and do not count toward opening the circuit.
type BreakerClient struct {
	next Backend
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

var _ Backend = (*BreakerClient)(nil)

// NewBreakerClient wraps next.
func NewBreakerClient(name string, next Backend, cfg BreakerConfig) *BreakerClient {
	d := DefaultBreakerConfig()
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = d.MaxRequests
	}
	if cfg.Interval <= 0 {
		cfg.Interval = d.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = d.MinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = d.FailureRatio
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500 && se.Code != 429
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerClient{next: next, cb: cb, name: name}
}

// State returns the breaker state name: closed, half-open or open.
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}

func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, ErrCircuitOpen
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, errors.New("circuit breaker: unexpected result type")
	}
	return typed, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *BreakerClient) ListEvents(ctx context.Context, mapID int64) ([]models.EventRecord, error) {
	return castResult[[]models.EventRecord](b.execute(func() (any, error) {
		return b.next.ListEvents(ctx, mapID)
	}))
}

func (b *BreakerClient) CreateEvent(ctx context.Context, draft models.NodeDraft) (models.EventRecord, error) {
	return castResult[models.EventRecord](b.execute(func() (any, error) {
		return b.next.CreateEvent(ctx, draft)
	}))
}

func (b *BreakerClient) UpdateEvent(ctx context.Context, eventID int64, update models.NodeUpdate) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.UpdateEvent(ctx, eventID, update)
	})
	return err
}

func (b *BreakerClient) GetOverlay(ctx context.Context, mapID int64) (models.OverlayRecord, error) {
	return castResult[models.OverlayRecord](b.execute(func() (any, error) {
		return b.next.GetOverlay(ctx, mapID)
	}))
}

func (b *BreakerClient) UpdateOverlay(ctx context.Context, imageID int64, update models.OverlayUpdate) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.UpdateOverlay(ctx, imageID, update)
	})
	return err
}

func (b *BreakerClient) GetTimeline(ctx context.Context, mapID int64) (models.TimelineSettings, error) {
	return castResult[models.TimelineSettings](b.execute(func() (any, error) {
		return b.next.GetTimeline(ctx, mapID)
	}))
}

func (b *BreakerClient) SaveCurrentTime(ctx context.Context, mapID, current int64) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.SaveCurrentTime(ctx, mapID, current)
	})
	return err
}
