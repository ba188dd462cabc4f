// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fit

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

// FileHeader describes a FIT file. The legacy header is 12 bytes; the
// 14 byte form adds a header CRC, which may legitimately be zero.
type FileHeader struct {
	HeaderSize      uint8   `json:"header_size" cbor:"header_size"`
	ProtocolVersion float32 `json:"protocol_version" cbor:"protocol_version"`
	ProfileVersion  float32 `json:"profile_version" cbor:"profile_version"`
	DataSize        uint32  `json:"data_size" cbor:"data_size"`
	CRC             *uint16 `json:"crc,omitempty" cbor:"crc,omitempty"`
}

// RawField is one field of a data message before profile application.
// The field's base type is the tag of Value.
type RawField struct {
	Number uint8 `json:"def_number" cbor:"def_number"`
	Value  Value `json:"raw_value" cbor:"raw_value"`
}

// BaseType returns the wire type the field was decoded as
func (f RawField) BaseType() BaseType {
	if f.Value.Type() == TypeArray {
		return f.Value.ElemType()
	}
	return f.Value.Type()
}

// RawRecord is one data message as produced by the tokenizer.
// Kind names the message when the tokenizer knew it; GlobalNumber carries the
// global message number otherwise. TimeOffset is set only for records that
// arrived with a compressed timestamp header.
type RawRecord struct {
	Kind         string     `json:"kind,omitempty" cbor:"kind,omitempty"`
	GlobalNumber *uint16    `json:"global_number,omitempty" cbor:"global_number,omitempty"`
	TimeOffset   *uint8     `json:"time_offset,omitempty" cbor:"time_offset,omitempty"`
	Fields       []RawField `json:"fields" cbor:"fields"`
}

// RawFile is the full raw decode result: header, records in file order and
// the trailing file checksum.
type RawFile struct {
	Header  FileHeader  `json:"header" cbor:"header"`
	Records []RawRecord `json:"records" cbor:"records"`
	CRC     uint16      `json:"crc" cbor:"crc"`
}

// Format selects an interchange encoding
type Format int

// Interchange formats
const (
	FormatJSON Format = iota
	FormatCBOR
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps "json" or "cbor" to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	}
	return FormatJSON, fmt.Errorf("unknown format %q (use json or cbor)", s)
}

// DetectFormat guesses the encoding of a file from its extension
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor", ".cbr":
		return FormatCBOR
	}
	return FormatJSON
}

// Marshal encodes v in the given format
func Marshal(v any, f Format) ([]byte, error) {
	switch f {
	case FormatCBOR:
		return cbor.Marshal(v)
	case FormatJSON:
		return json.Marshal(v)
	}
	return nil, fmt.Errorf("unsupported format %s", f)
}

// Unmarshal decodes data in the given format into v
func Unmarshal(data []byte, v any, f Format) error {
	switch f {
	case FormatCBOR:
		return cbor.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	}
	return fmt.Errorf("unsupported format %s", f)
}

// ReadRawFile reads a raw decode result
func ReadRawFile(r io.Reader, f Format) (*RawFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw decode result: %w", err)
	}
	var file RawFile
	if err := Unmarshal(data, &file, f); err != nil {
		return nil, fmt.Errorf("failed to decode raw decode result (%s): %w", f, err)
	}
	return &file, nil
}

// WriteRawFile writes a raw decode result
func WriteRawFile(w io.Writer, file *RawFile, f Format) error {
	data, err := Marshal(file, f)
	if err != nil {
		return fmt.Errorf("failed to encode raw decode result (%s): %w", f, err)
	}
	_, err = w.Write(data)
	return err
}
