// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/mutation"
	"github.com/tomtom215/mapforge/internal/scene"
	"github.com/tomtom215/mapforge/internal/session"
	"github.com/tomtom215/mapforge/internal/validation"
)

// Config holds the settings a replay runs with.
type Config struct {
	Session session.Config
	Guard   guard.Config

	// StepTimeout bounds each step and the final sync. Default: 10s
	StepTimeout time.Duration
}

// DefaultConfig returns the standard replay settings.
func DefaultConfig() Config {
	return Config{
		Session:     session.DefaultConfig(),
		Guard:       guard.DefaultConfig(),
		StepTimeout: 10 * time.Second,
	}
}

// Result is the observable outcome of a replay.
type Result struct {
	Name   string            `json:"name,omitempty"`
	Report scene.LoadReport  `json:"report"`
	Frame  session.Frame     `json:"frame"`
	Calls  []backend.Call    `json:"calls"`
	Notice []mutation.Notice `json:"notices,omitempty"`
	Errors []string          `json:"errors,omitempty"`
	Frames int               `json:"frames"`
}

// Run seeds an in-memory backend from the script, feeds every step to a live
// session and returns the final frame together with the writes the backend
// received. Saves still pending at the end are awaited; a debounced timeline
// save is flushed when the session closes.
func Run(ctx context.Context, sc *Script, cfg Config) (*Result, error) {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultConfig().StepTimeout
	}

	mem := backend.NewMemory()
	if err := sc.seed(mem); err != nil {
		return nil, err
	}

	s := session.New(sc.MapID, mem, guard.New(cfg.Guard), cfg.Session)
	if err := s.Load(ctx); err != nil {
		return nil, fmt.Errorf("load map %d: %w", sc.MapID, err)
	}

	res := &Result{Name: sc.Name, Report: s.Report()}
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		collect(s.Outbound(), res)
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = s.Run(runCtx) }()

	logger := logging.With().Str("replay", sc.Name).Int64("map_id", sc.MapID).Logger()

	var runErr error
	for i := range sc.Steps {
		if err := runStep(ctx, s, mem, &sc.Steps[i], cfg.StepTimeout); err != nil {
			runErr = fmt.Errorf("step %d (%s): %w", i, sc.Steps[i].Type, err)
			break
		}
		logger.Debug().Int("step", i).Str("type", sc.Steps[i].Type).Msg("Replay step applied")
	}

	if runErr == nil {
		runErr = finish(ctx, s, res, cfg.StepTimeout)
	}

	s.Close()
	<-s.Done()
	<-collected

	if runErr != nil {
		return nil, runErr
	}
	res.Calls = mem.Calls()
	return res, nil
}

func runStep(ctx context.Context, s *session.Session, mem *backend.Memory, st *Step, timeout time.Duration) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch st.Type {
	case StepSync:
		return s.Sync(stepCtx)
	case StepFail:
		msg := st.FailMessage
		if msg == "" {
			msg = "injected failure"
		}
		mem.FailNext(st.Op, errors.New(msg))
		return nil
	}

	for {
		err := s.Send(st.Message())
		if !errors.Is(err, session.ErrBacklog) {
			if err != nil {
				return err
			}
			break
		}
		// Let the loop drain before retrying.
		if err := s.Sync(stepCtx); err != nil {
			return err
		}
	}
	// Snapshot is a loop barrier: the step has been handled when it returns.
	_, err := s.Snapshot(stepCtx)
	return err
}

func finish(ctx context.Context, s *session.Session, res *Result, timeout time.Duration) error {
	syncCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Sync(syncCtx); err != nil {
		return fmt.Errorf("final sync: %w", err)
	}
	frame, err := s.Snapshot(syncCtx)
	if err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	res.Frame = frame
	return nil
}

func collect(out <-chan session.Envelope, res *Result) {
	for env := range out {
		switch env.Type {
		case session.EnvelopeFrame:
			res.Frames++
		case session.EnvelopeNotice:
			if n, ok := env.Data.(mutation.Notice); ok {
				res.Notice = append(res.Notice, n)
			}
		case session.EnvelopeError:
			if e, ok := env.Data.(session.ErrorData); ok {
				res.Errors = append(res.Errors, errorText(e))
			}
		}
	}
}

func errorText(e session.ErrorData) string {
	fields, ok := e.Details.([]validation.FieldError)
	if !ok || len(fields) == 0 {
		return e.Message
	}
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Message
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}
