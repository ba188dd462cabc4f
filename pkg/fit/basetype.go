// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fit

import (
	"fmt"
	"strings"
)

// BaseType identifies a primitive wire type. The set is closed: it is fixed by
// the format authority and every switch over it in this module lists all cases.
type BaseType uint8

// Base types. TypeUnknown is the zero value and never appears on the wire.
const (
	TypeUnknown BaseType = iota
	TypeByte
	TypeEnum
	TypeSInt8
	TypeUInt8
	TypeUInt8z
	TypeSInt16
	TypeUInt16
	TypeUInt16z
	TypeSInt32
	TypeUInt32
	TypeUInt32z
	TypeSInt64
	TypeUInt64
	TypeUInt64z
	TypeFloat32
	TypeFloat64
	TypeString
	TypeTimestamp
	TypeArray
)

var baseTypeNames = [...]string{
	TypeUnknown:   "unknown",
	TypeByte:      "byte",
	TypeEnum:      "enum",
	TypeSInt8:     "sint8",
	TypeUInt8:     "uint8",
	TypeUInt8z:    "uint8z",
	TypeSInt16:    "sint16",
	TypeUInt16:    "uint16",
	TypeUInt16z:   "uint16z",
	TypeSInt32:    "sint32",
	TypeUInt32:    "uint32",
	TypeUInt32z:   "uint32z",
	TypeSInt64:    "sint64",
	TypeUInt64:    "uint64",
	TypeUInt64z:   "uint64z",
	TypeFloat32:   "float32",
	TypeFloat64:   "float64",
	TypeString:    "string",
	TypeTimestamp: "timestamp",
	TypeArray:     "array",
}

// BaseTypes lists every base type in the catalog, excluding TypeUnknown.
func BaseTypes() []BaseType {
	out := make([]BaseType, 0, len(baseTypeNames)-1)
	for t := TypeByte; t <= TypeArray; t++ {
		out = append(out, t)
	}
	return out
}

// String returns the wire name of the base type
func (t BaseType) String() string {
	if int(t) < len(baseTypeNames) {
		return baseTypeNames[t]
	}
	return fmt.Sprintf("basetype(%d)", uint8(t))
}

// ParseBaseType maps a base type name to its BaseType. Matching ignores case
// and surrounding whitespace. TypeUnknown is never returned with ok=true.
func ParseBaseType(name string) (BaseType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t := TypeByte; t <= TypeArray; t++ {
		if baseTypeNames[t] == name {
			return t, true
		}
	}
	return TypeUnknown, false
}

// Size returns the byte width of a scalar. String and array are variable
// length and report 0. Timestamps are carried as 64-bit epoch seconds.
func (t BaseType) Size() int {
	switch t {
	case TypeByte, TypeEnum, TypeSInt8, TypeUInt8, TypeUInt8z:
		return 1
	case TypeSInt16, TypeUInt16, TypeUInt16z:
		return 2
	case TypeSInt32, TypeUInt32, TypeUInt32z, TypeFloat32:
		return 4
	case TypeSInt64, TypeUInt64, TypeUInt64z, TypeFloat64, TypeTimestamp:
		return 8
	case TypeString, TypeArray, TypeUnknown:
		return 0
	}
	return 0
}

// Signed reports whether the type holds a two's complement integer
func (t BaseType) Signed() bool {
	switch t {
	case TypeSInt8, TypeSInt16, TypeSInt32, TypeSInt64:
		return true
	}
	return false
}

// IsInteger reports whether values of the type are stored as integer bits
func (t BaseType) IsInteger() bool {
	switch t {
	case TypeByte, TypeEnum,
		TypeSInt8, TypeUInt8, TypeUInt8z,
		TypeSInt16, TypeUInt16, TypeUInt16z,
		TypeSInt32, TypeUInt32, TypeUInt32z,
		TypeSInt64, TypeUInt64, TypeUInt64z:
		return true
	}
	return false
}

// IsFloat reports whether the type is an IEEE 754 float
func (t BaseType) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// IsNumeric reports whether the type takes part in scale/offset arithmetic.
// Timestamps coerce to numbers but are never scaled.
func (t BaseType) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

// Invalid returns the reserved "not present" bit pattern of an integer type,
// sign-extended the same way Value stores it. Non-integer types return 0 and
// false: their validity is not a single bit pattern.
func (t BaseType) Invalid() (uint64, bool) {
	switch t {
	case TypeByte, TypeEnum, TypeUInt8:
		return 0xFF, true
	case TypeSInt8:
		return 0x7F, true
	case TypeSInt16:
		return 0x7FFF, true
	case TypeUInt16:
		return 0xFFFF, true
	case TypeSInt32:
		return 0x7FFFFFFF, true
	case TypeUInt32:
		return 0xFFFFFFFF, true
	case TypeSInt64:
		return 0x7FFFFFFFFFFFFFFF, true
	case TypeUInt64:
		return 0xFFFFFFFFFFFFFFFF, true
	case TypeUInt8z, TypeUInt16z, TypeUInt32z, TypeUInt64z:
		return 0, true
	}
	return 0, false
}

// normalize truncates bits to the width of t and sign-extends signed types,
// which gives integer arithmetic its native wrapping behaviour.
func normalize(t BaseType, bits uint64) uint64 {
	width := uint(t.Size()) * 8
	if width == 0 || width >= 64 {
		return bits
	}
	mask := uint64(1)<<width - 1
	v := bits & mask
	if t.Signed() && v&(uint64(1)<<(width-1)) != 0 {
		v |= ^mask
	}
	return v
}
