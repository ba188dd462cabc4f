// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/fitscope/pkg/fit"
)

// FormatDocument formats a whole document into a human-readable string
func FormatDocument(doc *Document) string {
	var b strings.Builder
	b.WriteString(FormatHeader(doc.Header))
	for i, rec := range doc.Records {
		b.WriteString(fmt.Sprintf("#%-5d ", i))
		b.WriteString(FormatRecord(rec))
	}
	b.WriteString(fmt.Sprintf("CRC: 0x%04X\n", doc.CRC))
	return b.String()
}

// FormatHeader formats the file header
func FormatHeader(h fit.FileHeader) string {
	result := fmt.Sprintf("FIT header: size=%d protocol=%.2f profile=%.2f data=%d bytes",
		h.HeaderSize, h.ProtocolVersion, h.ProfileVersion, h.DataSize)
	if h.CRC != nil {
		result += fmt.Sprintf(" crc=0x%04X", *h.CRC)
	}
	return result + "\n"
}

// FormatRecord formats a record into a human-readable string
func FormatRecord(rec Record) string {
	result := strings.ToUpper(rec.Kind)
	if rec.GlobalNumber != nil {
		result += fmt.Sprintf(" (%d)", *rec.GlobalNumber)
	}
	if rec.TimeOffset != nil {
		result += fmt.Sprintf(" +%ds", *rec.TimeOffset)
	}
	result += fmt.Sprintf(" fields=%d\n", len(rec.Fields))

	for _, f := range rec.Fields {
		result += "  " + FormatField(f) + "\n"
	}
	return result
}

// FormatField formats a single field as "name: value units"
func FormatField(f Field) string {
	if !f.Valid() {
		return fmt.Sprintf("%s: (invalid %s)", f.Name, f.BaseType())
	}

	value := formatValue(f.Value)
	if f.Label != "" {
		value = fmt.Sprintf("%s (%s)", f.Label, f.RawValue)
	}
	if f.Units != "" {
		value += " " + f.Units
	}
	return fmt.Sprintf("%s: %s", f.Name, value)
}

// formatValue trims scaled floats to a readable precision
func formatValue(v fit.Value) string {
	switch v.Type() {
	case fit.TypeFloat64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case fit.TypeArray:
		elems := v.Elems()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fit.TypeByte:
		return fmt.Sprintf("0x%02X", v.Uint())
	}
	return v.String()
}
