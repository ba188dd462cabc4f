// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decode

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/Thermoquad/fitscope/pkg/profile"
	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

const testProfile = `
sheets:
  Types:
    - [Type Name, Base Type, Value Name, Value, Comment]
    - [mesg_num, uint16]
    - [null, null, record, 20]
    - [null, null, event, 21]
    - [event_type, enum]
    - [null, null, start, 0]
    - [null, null, stop, 1]
  Messages:
    - [Message Name, "Field Def #", Field Name, Field Type, Array, Components, Scale, Offset, Units]
    - [record]
    - [null, 3, heart_rate, uint8, null, null, null, null, bpm]
    - [null, 7, altitude, uint16, null, null, 5, 500, m]
    - [null, 2, speeds, uint16, null, null, 1000, null, m/s]
    - [null, 253, timestamp, date_time, null, null, null, null, s]
    - [event]
    - [null, 1, event_type, event_type]
`

func testCatalog(t *testing.T) *profile.Catalog {
	t.Helper()
	wb, err := profile.LoadYAML(strings.NewReader(testProfile))
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	cat, err := profile.Compile(wb)
	if err != nil {
		t.Fatalf("compile profile: %v", err)
	}
	return cat
}

func u16(n uint16) *uint16 { return &n }

// ============================================================
// Resolver Tests
// ============================================================

func TestResolveRecord_KnownAndUnknownSlots(t *testing.T) {
	r := NewResolver(testCatalog(t))
	rec := r.ResolveRecord(fit.RawRecord{
		Kind: "record",
		Fields: []fit.RawField{
			{Number: 9, Value: fit.UInt16(42)},
			{Number: 3, Value: fit.UInt8(140)},
			{Number: 7, Value: fit.UInt16(3000)},
		},
	})

	if !rec.Known || rec.Kind != "record" {
		t.Fatalf("expected known record, got %+v", rec)
	}
	if len(rec.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(rec.Fields))
	}

	// Input order is preserved
	unknown, hr, alt := rec.Fields[0], rec.Fields[1], rec.Fields[2]

	if unknown.Name != "unknown_field_9" || unknown.Scale != 1 || unknown.Offset != 0 || unknown.Known {
		t.Errorf("unexpected unknown field: %+v", unknown)
	}
	if !unknown.Value.Equal(fit.UInt16(42)) {
		t.Errorf("unknown field value should stay raw, got %s %s", unknown.Value.Type(), unknown.Value)
	}

	if hr.Name != "heart_rate" || hr.Units != "bpm" || !hr.Value.Equal(fit.UInt8(140)) {
		t.Errorf("unexpected heart_rate: %+v", hr)
	}

	if alt.Name != "altitude" || alt.Scale != 5 || alt.Offset != 500 {
		t.Errorf("unexpected altitude slot: %+v", alt)
	}
	if alt.Value.Type() != fit.TypeFloat64 || alt.Value.Float() != 100 {
		t.Errorf("expected altitude 3000/5-500 = 100, got %s %s", alt.Value.Type(), alt.Value)
	}
	if !alt.RawValue.Equal(fit.UInt16(3000)) {
		t.Errorf("raw value not kept: %s", alt.RawValue)
	}
}

func TestResolveRecord_InvalidRawStillDecoded(t *testing.T) {
	r := NewResolver(testCatalog(t))
	rec := r.ResolveRecord(fit.RawRecord{
		Kind:   "record",
		Fields: []fit.RawField{{Number: 3, Value: fit.UInt8(0xFF)}},
	})
	f := rec.Fields[0]
	n, ok := f.Value.AsFloat64()
	if !ok || n != 255 {
		t.Errorf("expected physical value 255, got %v", f.Value)
	}
	if f.Valid() {
		t.Error("expected 0xFF uint8 to be invalid")
	}

	alt := r.ResolveRecord(fit.RawRecord{
		Kind:   "record",
		Fields: []fit.RawField{{Number: 7, Value: fit.UInt16(0xFFFF)}},
	}).Fields[0]
	if alt.Valid() || alt.Value.Type() != fit.TypeFloat64 {
		t.Errorf("invalid raw should still be scaled: %+v", alt)
	}
}

func TestResolveRecord_ScalesArrays(t *testing.T) {
	r := NewResolver(testCatalog(t))
	rec := r.ResolveRecord(fit.RawRecord{
		Kind: "record",
		Fields: []fit.RawField{{
			Number: 2,
			Value:  fit.MustArray(fit.TypeUInt16, fit.UInt16(1500), fit.UInt16(2500)),
		}},
	})
	v := rec.Fields[0].Value
	if v.Type() != fit.TypeArray || v.ElemType() != fit.TypeFloat64 {
		t.Fatalf("expected float64 array, got %s/%s", v.Type(), v.ElemType())
	}
	elems := v.Elems()
	if elems[0].Float() != 1.5 || elems[1].Float() != 2.5 {
		t.Errorf("unexpected scaled array %s", v)
	}
}

func TestResolveRecord_NonNumericPassThrough(t *testing.T) {
	r := NewResolver(testCatalog(t))
	ts := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	rec := r.ResolveRecord(fit.RawRecord{
		Kind:   "record",
		Fields: []fit.RawField{{Number: 253, Value: fit.Timestamp(ts)}},
	})
	f := rec.Fields[0]
	if f.Name != "timestamp" || !f.Value.Equal(fit.Timestamp(ts)) {
		t.Errorf("unexpected timestamp field: %+v", f)
	}
}

func TestResolveRecord_EnumLabel(t *testing.T) {
	r := NewResolver(testCatalog(t))
	rec := r.ResolveRecord(fit.RawRecord{
		GlobalNumber: u16(21),
		Fields: []fit.RawField{
			{Number: 1, Value: fit.Enum(1)},
		},
	})
	if rec.Kind != "event" || !rec.Known {
		t.Fatalf("expected event via global number, got %q", rec.Kind)
	}
	f := rec.Fields[0]
	if f.Label != "stop" || !f.Value.Equal(fit.Enum(1)) {
		t.Errorf("expected label stop with raw enum payload, got %+v", f)
	}

	unnamed := r.ResolveRecord(fit.RawRecord{
		Kind:   "event",
		Fields: []fit.RawField{{Number: 1, Value: fit.Enum(9)}},
	}).Fields[0]
	if unnamed.Label != "" || !unnamed.Valid() {
		t.Errorf("unnamed enum should stay valid without a label: %+v", unnamed)
	}
}

func TestResolveRecord_UnknownMessage(t *testing.T) {
	r := NewResolver(testCatalog(t))
	tests := []struct {
		name string
		raw  fit.RawRecord
		kind string
	}{
		{"named", fit.RawRecord{Kind: "mystery"}, "mystery"},
		{"numbered", fit.RawRecord{GlobalNumber: u16(65280)}, "unknown_message_65280"},
		{"number zero", fit.RawRecord{GlobalNumber: u16(0)}, "unknown_message_0"},
		{"anonymous", fit.RawRecord{}, "unknown_message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.raw.Fields = []fit.RawField{{Number: 3, Value: fit.UInt8(7)}}
			rec := r.ResolveRecord(tt.raw)
			if rec.Known || rec.Kind != tt.kind {
				t.Errorf("got kind %q known=%v, want %q", rec.Kind, rec.Known, tt.kind)
			}
			if rec.Fields[0].Name != "unknown_field_3" || !rec.Fields[0].Value.Equal(fit.UInt8(7)) {
				t.Errorf("unexpected fallback field: %+v", rec.Fields[0])
			}
		})
	}
}

// ============================================================
// Document Tests
// ============================================================

func TestDecode_DocumentOrderAndTags(t *testing.T) {
	offset := uint8(4)
	raw := &fit.RawFile{
		Header: fit.FileHeader{HeaderSize: 14, ProtocolVersion: 2, ProfileVersion: 21.4, DataSize: 64},
		Records: []fit.RawRecord{
			{Kind: "event", Fields: []fit.RawField{{Number: 1, Value: fit.Enum(0)}}},
			{Kind: "record", TimeOffset: &offset, Fields: []fit.RawField{{Number: 3, Value: fit.UInt8(3)}}},
		},
		CRC: 0xABCD,
	}
	doc := Decode(raw, testCatalog(t))
	if len(doc.Records) != 2 || doc.Records[0].Kind != "event" || doc.Records[1].Kind != "record" {
		t.Fatalf("records out of order: %+v", doc.Records)
	}
	if doc.Records[1].TimeOffset == nil || *doc.Records[1].TimeOffset != 4 {
		t.Error("time offset not carried")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"value":{"type":"enum","data":0}`) {
		t.Errorf("enum value not tagged: %s", s)
	}
	if !strings.Contains(s, `"value":{"type":"uint8","data":3}`) {
		t.Errorf("uint8 value not tagged: %s", s)
	}
	if strings.Contains(s, "Known") || strings.Contains(s, "TypeName") {
		t.Errorf("internal fields leaked: %s", s)
	}

	cb, err := cbor.Marshal(doc)
	if err != nil {
		t.Fatalf("cbor marshal: %v", err)
	}
	var back Document
	if err := cbor.Unmarshal(cb, &back); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if back.CRC != 0xABCD || !back.Records[0].Fields[0].Value.Equal(fit.Enum(0)) {
		t.Errorf("cbor round trip mismatch: %+v", back)
	}
}

func TestDecode_NilInput(t *testing.T) {
	doc := NewResolver(testCatalog(t)).Decode(nil)
	if doc == nil || doc.Records == nil || len(doc.Records) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestDecode_NilCatalogDegrades(t *testing.T) {
	doc := Decode(&fit.RawFile{Records: []fit.RawRecord{{Kind: "record", Fields: []fit.RawField{{Number: 1, Value: fit.Float32(1.5)}}}}}, nil)
	if doc.Records[0].Known || doc.Records[0].Fields[0].Name != "unknown_field_1" {
		t.Errorf("expected full degrade, got %+v", doc.Records[0])
	}
}

// ============================================================
// Validator Tests
// ============================================================

func TestValidateRecord(t *testing.T) {
	r := NewResolver(testCatalog(t))
	tests := []struct {
		name string
		raw  fit.RawRecord
		want []AnomalyType
	}{
		{"clean", fit.RawRecord{Kind: "record", Fields: []fit.RawField{{Number: 3, Value: fit.UInt8(90)}}}, nil},
		{"unknown message", fit.RawRecord{Kind: "mystery"}, []AnomalyType{AnomalyUnknownMessage}},
		{"unknown field", fit.RawRecord{Kind: "record", Fields: []fit.RawField{{Number: 99, Value: fit.UInt8(1)}}}, []AnomalyType{AnomalyUnknownField}},
		{"invalid value", fit.RawRecord{Kind: "record", Fields: []fit.RawField{{Number: 3, Value: fit.UInt8(0xFF)}}}, []AnomalyType{AnomalyInvalidValue}},
		{"invalid float", fit.RawRecord{Kind: "record", Fields: []fit.RawField{{Number: 3, Value: fit.Float32(float32(math.NaN()))}}}, []AnomalyType{AnomalyInvalidValue}},
		{"unnamed enum", fit.RawRecord{Kind: "event", Fields: []fit.RawField{{Number: 1, Value: fit.Enum(7)}}}, []AnomalyType{AnomalyUnnamedEnum}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRecord(r.ResolveRecord(tt.raw))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d anomalies, got %+v", len(tt.want), got)
			}
			for i := range got {
				if got[i].Type != tt.want[i] {
					t.Errorf("anomaly %d: got %s, want %s", i, got[i].Type, tt.want[i])
				}
			}
		})
	}
}

// ============================================================
// Statistics and Formatter Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	r := NewResolver(testCatalog(t))
	stats := NewStatistics()

	clean := r.ResolveRecord(fit.RawRecord{Kind: "record", Fields: []fit.RawField{{Number: 3, Value: fit.UInt8(90)}}})
	bad := r.ResolveRecord(fit.RawRecord{Kind: "record", Fields: []fit.RawField{{Number: 3, Value: fit.UInt8(0xFF)}}})
	stats.Update(&clean, nil, ValidateRecord(clean))
	stats.Update(&bad, nil, ValidateRecord(bad))
	stats.Update(nil, errTest, nil)

	if stats.TotalRecords != 3 || stats.CleanRecords != 1 || stats.InvalidValues != 1 || stats.DecodeErrors != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.Kinds["record"] != 2 {
		t.Errorf("expected 2 record kinds, got %d", stats.Kinds["record"])
	}
	out := stats.String()
	if !strings.Contains(out, "Invalid Values:") || !strings.Contains(out, "record") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	stats.Reset()
	if stats.TotalRecords != 0 || len(stats.Kinds) != 0 {
		t.Error("reset did not clear counters")
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("truncated record")

func TestFormatRecord(t *testing.T) {
	r := NewResolver(testCatalog(t))
	rec := r.ResolveRecord(fit.RawRecord{
		Kind: "record",
		Fields: []fit.RawField{
			{Number: 7, Value: fit.UInt16(3000)},
			{Number: 3, Value: fit.UInt8(0xFF)},
		},
	})
	out := FormatRecord(rec)
	if !strings.HasPrefix(out, "RECORD fields=2") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "altitude: 100 m") {
		t.Errorf("expected scaled altitude, got %q", out)
	}
	if !strings.Contains(out, "heart_rate: (invalid uint8)") {
		t.Errorf("expected invalid heart_rate, got %q", out)
	}

	ev := r.ResolveRecord(fit.RawRecord{Kind: "event", Fields: []fit.RawField{{Number: 1, Value: fit.Enum(0)}}})
	if got := FormatField(ev.Fields[0]); got != "event_type: start (0)" {
		t.Errorf("unexpected enum format %q", got)
	}
}
