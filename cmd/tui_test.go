// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/fitscope/pkg/decode"
)

// ============================================================
// formatElapsed Tests
// ============================================================

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{500 * time.Millisecond, "0 seconds"},
		{time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{time.Minute, "1 minute"},
		{61 * time.Second, "1 minute and 1 second"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1 hour, 2 minutes, and 3 seconds"},
		{49 * time.Hour, "2 days and 1 hour"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// ============================================================
// Model Tests
// ============================================================

func TestModel_RecordWithAnomalies(t *testing.T) {
	m := initialModel("test", false)
	rec := decode.NewResolver(nil).ResolveRecord(testRawRecord())
	anomalies := decode.ValidateRecord(rec)

	next, _ := m.Update(recordMsg{record: &rec, anomalies: anomalies})
	m = next.(model)

	if m.stats.TotalRecords != 1 || m.stats.UnknownMessages != 1 {
		t.Errorf("unexpected stats: %+v", m.stats)
	}
	if len(m.events) != len(anomalies) {
		t.Errorf("expected %d events, got %d", len(anomalies), len(m.events))
	}
	if m.lastRecord == nil {
		t.Error("expected last record to be kept")
	}
}

func TestModel_CleanRecordsLoggedOnlyWithShowAll(t *testing.T) {
	rec := decode.Record{Kind: "record", Known: true}

	for _, showAll := range []bool{false, true} {
		m := initialModel("test", showAll)
		next, _ := m.Update(recordMsg{record: &rec})
		m = next.(model)

		want := 0
		if showAll {
			want = 1
		}
		if len(m.events) != want {
			t.Errorf("showAll=%v: expected %d events, got %d", showAll, want, len(m.events))
		}
		if m.stats.CleanRecords != 1 {
			t.Errorf("showAll=%v: expected 1 clean record, got %d", showAll, m.stats.CleanRecords)
		}
	}
}

func TestModel_DecodeError(t *testing.T) {
	m := initialModel("test", false)
	next, _ := m.Update(recordMsg{decodeErr: ErrMalformedRecord})
	m = next.(model)

	if m.stats.DecodeErrors != 1 {
		t.Errorf("expected 1 decode error, got %d", m.stats.DecodeErrors)
	}
	if len(m.events) != 1 || !m.events[0].isError {
		t.Errorf("expected one error event, got %+v", m.events)
	}
}

func TestModel_FeedDone(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"clean end", nil, "Input complete"},
		{"failure", errors.New("reset by peer"), "Feed stopped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := initialModel("test", false)
			next, _ := m.Update(feedDoneMsg{err: tt.err})
			m = next.(model)

			if !m.feedDone {
				t.Error("expected feedDone")
			}
			if view := m.View(); !strings.Contains(view, tt.want) {
				t.Errorf("view missing %q", tt.want)
			}
		})
	}
}
