// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/fitscope/pkg/decode"
	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/gorilla/websocket"
)

func testRawRecord() fit.RawRecord {
	return fit.RawRecord{
		Kind: "record",
		Fields: []fit.RawField{
			{Number: 3, Value: fit.UInt8(140)},
		},
	}
}

func mustMarshal(t *testing.T, v any, f fit.Format) []byte {
	t.Helper()
	data, err := fit.Marshal(v, f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// ============================================================
// WebSocket Source Tests
// ============================================================

func TestWebSocketSource_TextBinaryAndClose(t *testing.T) {
	jsonRec := mustMarshal(t, testRawRecord(), fit.FormatJSON)
	cborRec := mustMarshal(t, testRawRecord(), fit.FormatCBOR)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, jsonRec)
		conn.WriteMessage(websocket.BinaryMessage, cborRec)
		conn.WriteMessage(websocket.TextMessage, []byte("not a record"))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	src, err := OpenWebSocketSource("ws"+strings.TrimPrefix(srv.URL, "http"), "", "", false)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer src.Close()

	for i := 0; i < 2; i++ {
		rec, err := src.Next()
		if err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if rec.Kind != "record" || len(rec.Fields) != 1 || !rec.Fields[0].Value.Equal(fit.UInt8(140)) {
			t.Errorf("message %d: unexpected record %+v", i, rec)
		}
	}

	if _, err := src.Next(); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}
	if _, err := src.Next(); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}
	// Stays closed
	if _, err := src.Next(); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed after close, got %v", err)
	}
}

func TestOpenWebSocketSource_BadScheme(t *testing.T) {
	if _, err := OpenWebSocketSource("http://localhost/records", "", "", false); err == nil {
		t.Error("expected error for http scheme")
	}
}

// ============================================================
// Line Source Tests
// ============================================================

func TestLineSource(t *testing.T) {
	line := string(mustMarshal(t, testRawRecord(), fit.FormatJSON))
	input := line + "\n\n  \n{broken\n" + line + "\n"
	src := NewLineSource(io.NopCloser(strings.NewReader(input)))

	if _, err := src.Next(); err != nil {
		t.Fatalf("first line: %v", err)
	}
	if _, err := src.Next(); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}
	if _, err := src.Next(); err != nil {
		t.Fatalf("last line: %v", err)
	}
	if _, err := src.Next(); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed at EOF, got %v", err)
	}
}

func TestPump_SkipsMalformedRecords(t *testing.T) {
	line := string(mustMarshal(t, testRawRecord(), fit.FormatJSON))
	src := NewLineSource(io.NopCloser(strings.NewReader(line + "\n{broken\n" + line + "\n")))

	var got []recordMsg
	err := pump(src, decode.NewResolver(nil), func(m recordMsg) { got = append(got, m) })
	if err != nil {
		t.Fatalf("pump: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[0].record == nil || got[2].record == nil {
		t.Error("expected records for the valid lines")
	}
	if got[1].decodeErr == nil {
		t.Error("expected a decode error for the broken line")
	}
	// Without a catalog every message is unknown
	if len(got[0].anomalies) == 0 {
		t.Error("expected anomalies without a catalog")
	}
}

// ============================================================
// OpenSource Tests
// ============================================================

func TestOpenSource_NeedsURLOrPort(t *testing.T) {
	if _, _, err := OpenSource(connectionOptions{}); err == nil {
		t.Error("expected error with neither URL nor port")
	}
}

func TestOpenSource_PasswordErrorStopsDial(t *testing.T) {
	want := errors.New("no tty")
	_, _, err := OpenSource(connectionOptions{
		URL:           "ws://127.0.0.1:1/records",
		Username:      "rider",
		passwordInput: func() (string, error) { return "", want },
	})
	if !errors.Is(err, want) {
		t.Errorf("expected password error, got %v", err)
	}
}

func TestForward_DropsAfterStop(t *testing.T) {
	records := make(chan recordMsg, 1)
	stop := make(chan struct{})
	emit := forward(records, stop)

	emit(recordMsg{})
	if len(records) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(records))
	}

	// Queue is full; after stop the emit must not block
	close(stop)
	finished := make(chan struct{})
	go func() {
		emit(recordMsg{})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("emit blocked after stop")
	}
}
