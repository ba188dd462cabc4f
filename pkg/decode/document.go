// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decode

import (
	"github.com/Thermoquad/fitscope/pkg/fit"
)

// Field is one resolved field. Value holds the physical value, RawValue the
// value as it arrived. Label names the enum variant when one matched.
type Field struct {
	Number   uint8     `json:"def_number" cbor:"def_number"`
	Name     string    `json:"name" cbor:"name"`
	Units    string    `json:"units,omitempty" cbor:"units,omitempty"`
	Scale    float64   `json:"scale" cbor:"scale"`
	Offset   float64   `json:"offset" cbor:"offset"`
	Value    fit.Value `json:"value" cbor:"value"`
	RawValue fit.Value `json:"raw_value" cbor:"raw_value"`
	Label    string    `json:"label,omitempty" cbor:"label,omitempty"`

	// Known is false when the profile had no slot for this field
	Known bool `json:"-" cbor:"-"`
	// TypeName is the profile field type of a known slot
	TypeName string `json:"-" cbor:"-"`
	// Enum is true when TypeName names an enumeration in the profile
	Enum bool `json:"-" cbor:"-"`
}

// Valid reports whether the raw value is present, using the sentinel of its
// base type. Scaling never changes validity.
func (f Field) Valid() bool {
	return f.RawValue.IsValid()
}

// BaseType returns the wire type of the raw value
func (f Field) BaseType() fit.BaseType {
	if f.RawValue.Type() == fit.TypeArray {
		return f.RawValue.ElemType()
	}
	return f.RawValue.Type()
}

// Record is one resolved data message. Fields keep the order they arrived in.
type Record struct {
	Kind         string  `json:"kind" cbor:"kind"`
	GlobalNumber *uint16 `json:"global_number,omitempty" cbor:"global_number,omitempty"`
	TimeOffset   *uint8  `json:"time_offset,omitempty" cbor:"time_offset,omitempty"`
	Fields       []Field `json:"fields" cbor:"fields"`

	// Known is false when the message is not in the profile
	Known bool `json:"-" cbor:"-"`
}

// Field returns the first field with the given name
func (r Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Document is a fully resolved file
type Document struct {
	Header  fit.FileHeader `json:"header" cbor:"header"`
	Records []Record       `json:"records" cbor:"records"`
	CRC     uint16         `json:"crc" cbor:"crc"`
}
