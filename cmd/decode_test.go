// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Thermoquad/fitscope/pkg/decode"
	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/goccy/go-json"
)

func testDocument(t *testing.T) *decode.Document {
	t.Helper()
	raw := &fit.RawFile{
		Header:  fit.FileHeader{HeaderSize: 14, ProtocolVersion: 2, ProfileVersion: 21.94, DataSize: 100},
		Records: []fit.RawRecord{testRawRecord()},
	}
	return decode.Decode(raw, nil)
}

// ============================================================
// Output Tests
// ============================================================

func TestWriteDocument_Formats(t *testing.T) {
	doc := testDocument(t)

	var jsonOut bytes.Buffer
	if err := writeDocument(&jsonOut, doc, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(jsonOut.Bytes(), &back); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if _, ok := back["records"]; !ok {
		t.Error("json output missing records")
	}

	var textOut bytes.Buffer
	if err := writeDocument(&textOut, doc, "TEXT"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(textOut.String(), "unknown_field_3") {
		t.Errorf("text output missing field name:\n%s", textOut.String())
	}

	var cborOut bytes.Buffer
	if err := writeDocument(&cborOut, doc, "cbor"); err != nil {
		t.Fatalf("cbor: %v", err)
	}
	if cborOut.Len() == 0 {
		t.Error("cbor output is empty")
	}

	if err := writeDocument(&bytes.Buffer{}, doc, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// ============================================================
// Input Tests
// ============================================================

func TestReadRawFile_DetectsFormat(t *testing.T) {
	dir := t.TempDir()
	raw := &fit.RawFile{Records: []fit.RawRecord{testRawRecord()}}

	for _, tc := range []struct {
		name   string
		format fit.Format
	}{
		{"activity.json", fit.FormatJSON},
		{"activity.cbor", fit.FormatCBOR},
	} {
		path := filepath.Join(dir, tc.name)
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := fit.WriteRawFile(f, raw, tc.format); err != nil {
			t.Fatalf("write %s: %v", tc.name, err)
		}
		f.Close()

		got, err := readRawFile(path, "")
		if err != nil {
			t.Fatalf("read %s: %v", tc.name, err)
		}
		if len(got.Records) != 1 || got.Records[0].Kind != "record" {
			t.Errorf("%s: unexpected records %+v", tc.name, got.Records)
		}
	}
}

func TestReadRawFile_BadInputFormat(t *testing.T) {
	if _, err := readRawFile("activity.json", "msgpack"); err == nil {
		t.Error("expected error for unknown input format")
	}
}
