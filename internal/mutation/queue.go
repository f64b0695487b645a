// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package mutation

import (
	"sync"
)

// saveJob moves one entity from a persisted value to a new one.
type saveJob[T comparable] struct {
	id       int64
	from, to T
}

// keyedQueue allows one in-flight save per entity id. Saves submitted while
// one is in flight collapse into a single pending save holding the latest
// target and the earliest rollback value.
type keyedQueue[T comparable] struct {
	mu       sync.Mutex
	inflight map[int64]bool
	pending  map[int64]saveJob[T]
}

func newKeyedQueue[T comparable]() *keyedQueue[T] {
	return &keyedQueue[T]{
		inflight: make(map[int64]bool),
		pending:  make(map[int64]saveJob[T]),
	}
}

// submit reports whether j should start now. Otherwise it was queued and
// coalesced reports whether it replaced an earlier pending save.
func (q *keyedQueue[T]) submit(j saveJob[T]) (start, coalesced bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.inflight[j.id] {
		q.inflight[j.id] = true
		return true, false
	}
	if prev, ok := q.pending[j.id]; ok {
		j.from = prev.from
		coalesced = true
	}
	q.pending[j.id] = j
	return false, coalesced
}

// complete marks the in-flight save of done finished and returns the next
// save to start, if any. When done failed the server still holds done.from,
// so the next save rolls back to that instead.
func (q *keyedQueue[T]) complete(done saveJob[T], failed bool) (saveJob[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next, ok := q.pending[done.id]
	if !ok {
		delete(q.inflight, done.id)
		return saveJob[T]{}, false
	}
	delete(q.pending, done.id)
	if failed {
		next.from = done.from
	}
	return next, true
}
