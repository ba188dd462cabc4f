// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fit

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// ============================================================
// Interchange Tests
// ============================================================

func TestMarshalJSON_TagsBaseType(t *testing.T) {
	enum, err := json.Marshal(Enum(3))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	u8, err := json.Marshal(UInt8(3))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(enum) != `{"type":"enum","data":3}` {
		t.Errorf("unexpected enum encoding: %s", enum)
	}
	if string(u8) != `{"type":"uint8","data":3}` {
		t.Errorf("unexpected uint8 encoding: %s", u8)
	}
}

func TestJSON_NonFiniteFloat(t *testing.T) {
	data, err := json.Marshal(Float32(float32(math.NaN())))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"NaN"`) {
		t.Errorf("expected NaN string payload, got %s", data)
	}
	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Type() != TypeFloat32 || back.IsValid() {
		t.Errorf("expected invalid float32, got %s %s", back.Type(), back)
	}
}

func TestJSON_ArrayAndTimestamp(t *testing.T) {
	rec := RawRecord{
		Kind: "record",
		Fields: []RawField{
			{Number: 253, Value: Timestamp(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))},
			{Number: 2, Value: MustArray(TypeSInt16, SInt16(-4), SInt16(9))},
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back RawRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(back.Fields))
	}
	for i := range rec.Fields {
		if !back.Fields[i].Value.Equal(rec.Fields[i].Value) {
			t.Errorf("field %d: got %s, want %s", i, back.Fields[i].Value, rec.Fields[i].Value)
		}
	}
	if back.Fields[1].BaseType() != TypeSInt16 {
		t.Errorf("expected array base type sint16, got %s", back.Fields[1].BaseType())
	}
}

func TestJSON_RejectsOutOfRange(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"type":"uint8","data":256}`), &v); err == nil {
		t.Error("expected range error for uint8 256")
	}
	if err := json.Unmarshal([]byte(`{"type":"sint8","data":-129}`), &v); err == nil {
		t.Error("expected range error for sint8 -129")
	}
	if err := json.Unmarshal([]byte(`{"type":"bogus","data":1}`), &v); err == nil {
		t.Error("expected error for unknown type")
	}
	if err := json.Unmarshal([]byte(`{"type":"array","elem":"uint8","data":[{"type":"uint16","data":1}]}`), &v); err == nil {
		t.Error("expected error for heterogeneous array")
	}
}

func TestRawFile_CBORRoundTrip(t *testing.T) {
	crc := uint16(0xBEEF)
	offset := uint8(12)
	num := uint16(20)
	file := &RawFile{
		Header: FileHeader{HeaderSize: 14, ProtocolVersion: 2.0, ProfileVersion: 21.4, DataSize: 128, CRC: &crc},
		Records: []RawRecord{{
			GlobalNumber: &num,
			TimeOffset:   &offset,
			Fields: []RawField{
				{Number: 3, Value: UInt8(0xFF)},
				{Number: 5, Value: UInt32(123456)},
				{Number: 8, Value: String("lap")},
				{Number: 9, Value: Float64(math.Inf(-1))},
			},
		}},
		CRC: 0x1234,
	}

	var buf bytes.Buffer
	if err := WriteRawFile(&buf, file, FormatCBOR); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := ReadRawFile(&buf, FormatCBOR)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.CRC != 0x1234 || back.Header.CRC == nil || *back.Header.CRC != crc {
		t.Errorf("checksums not preserved: %+v", back.Header)
	}
	got := back.Records[0]
	if got.TimeOffset == nil || *got.TimeOffset != 12 || got.GlobalNumber == nil || *got.GlobalNumber != 20 {
		t.Errorf("record header not preserved: %+v", got)
	}
	for i, f := range file.Records[0].Fields {
		if !got.Fields[i].Value.Equal(f.Value) {
			t.Errorf("field %d: got %s %s, want %s %s", i,
				got.Fields[i].Value.Type(), got.Fields[i].Value, f.Value.Type(), f.Value)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("CBOR"); err != nil || f != FormatCBOR {
		t.Errorf("ParseFormat(CBOR) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
	if DetectFormat("ride.cbor") != FormatCBOR || DetectFormat("ride.json") != FormatJSON {
		t.Error("DetectFormat mismatch")
	}
}
