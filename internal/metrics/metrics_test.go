// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPersistence(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		err    error
		result string
	}{
		{"success", "test_update_success", nil, "success"},
		{"failure", "test_update_failure", errors.New("connection refused"), "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(PersistenceRequests.WithLabelValues(tt.op, tt.result))
			RecordPersistence(tt.op, 15*time.Millisecond, tt.err)
			after := testutil.ToFloat64(PersistenceRequests.WithLabelValues(tt.op, tt.result))
			if after-before != 1 {
				t.Errorf("%s/%s counter delta = %v, want 1", tt.op, tt.result, after-before)
			}
		})
	}
}

func TestRecordAbortedSave(t *testing.T) {
	before := testutil.ToFloat64(PersistenceRequests.WithLabelValues("test_aborted", "aborted"))
	RecordAbortedSave("test_aborted")
	if got := testutil.ToFloat64(PersistenceRequests.WithLabelValues("test_aborted", "aborted")); got-before != 1 {
		t.Errorf("aborted counter delta = %v, want 1", got-before)
	}
}

func TestTrackSession(t *testing.T) {
	before := testutil.ToFloat64(ActiveSessions)
	TrackSession(true)
	TrackSession(true)
	TrackSession(false)
	if got := testutil.ToFloat64(ActiveSessions); got-before != 1 {
		t.Errorf("active sessions delta = %v, want 1", got-before)
	}
	TrackSession(false)
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test", "200"))
	RecordAPIRequest("GET", "/test", "200", 3*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test", "200")); got-before != 1 {
		t.Errorf("api requests delta = %v, want 1", got-before)
	}

	active := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got-active != 1 {
		t.Errorf("active requests delta = %v, want 1", got-active)
	}
	TrackActiveRequest(false)
}
