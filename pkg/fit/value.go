// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fit

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a decoded field payload tagged with its base type.
// The zero Value has type TypeUnknown.
type Value struct {
	typ   BaseType
	elem  BaseType // element type, arrays only
	bits  uint64   // integer kinds, sign-extended
	num   float64  // float kinds
	str   string
	ts    time.Time
	elems []Value
}

func intValue(t BaseType, bits uint64) Value {
	return Value{typ: t, bits: normalize(t, bits)}
}

// Byte creates a byte value
func Byte(v uint8) Value { return intValue(TypeByte, uint64(v)) }

// Enum creates an enum value
func Enum(v uint8) Value { return intValue(TypeEnum, uint64(v)) }

// SInt8 creates a sint8 value
func SInt8(v int8) Value { return intValue(TypeSInt8, uint64(int64(v))) }

// UInt8 creates a uint8 value
func UInt8(v uint8) Value { return intValue(TypeUInt8, uint64(v)) }

// UInt8z creates a uint8z value
func UInt8z(v uint8) Value { return intValue(TypeUInt8z, uint64(v)) }

// SInt16 creates a sint16 value
func SInt16(v int16) Value { return intValue(TypeSInt16, uint64(int64(v))) }

// UInt16 creates a uint16 value
func UInt16(v uint16) Value { return intValue(TypeUInt16, uint64(v)) }

// UInt16z creates a uint16z value
func UInt16z(v uint16) Value { return intValue(TypeUInt16z, uint64(v)) }

// SInt32 creates a sint32 value
func SInt32(v int32) Value { return intValue(TypeSInt32, uint64(int64(v))) }

// UInt32 creates a uint32 value
func UInt32(v uint32) Value { return intValue(TypeUInt32, uint64(v)) }

// UInt32z creates a uint32z value
func UInt32z(v uint32) Value { return intValue(TypeUInt32z, uint64(v)) }

// SInt64 creates a sint64 value
func SInt64(v int64) Value { return intValue(TypeSInt64, uint64(v)) }

// UInt64 creates a uint64 value
func UInt64(v uint64) Value { return intValue(TypeUInt64, v) }

// UInt64z creates a uint64z value
func UInt64z(v uint64) Value { return intValue(TypeUInt64z, v) }

// Float32 creates a float32 value
func Float32(v float32) Value { return Value{typ: TypeFloat32, num: float64(v)} }

// Float64 creates a float64 value
func Float64(v float64) Value { return Value{typ: TypeFloat64, num: v} }

// String creates a string value. Embedded NUL bytes are kept and make the
// value invalid.
func String(v string) Value { return Value{typ: TypeString, str: v} }

// Timestamp creates a timestamp value, stored in UTC at second precision
func Timestamp(v time.Time) Value {
	return Value{typ: TypeTimestamp, ts: time.Unix(v.Unix(), 0).UTC()}
}

// Array creates a homogeneous array of elem. It returns a TypeMismatchError
// if any element is of another type.
func Array(elem BaseType, items ...Value) (Value, error) {
	if elem == TypeArray || elem == TypeUnknown {
		return Value{}, &TypeMismatchError{Left: TypeArray, Right: elem, Reason: "unsupported array element type"}
	}
	for _, it := range items {
		if it.typ != elem {
			return Value{}, &TypeMismatchError{Left: elem, Right: it.typ, Reason: "array elements must share one type"}
		}
	}
	out := make([]Value, len(items))
	copy(out, items)
	return Value{typ: TypeArray, elem: elem, elems: out}, nil
}

// MustArray is like Array but panics on a heterogeneous element list.
// Intended for literals in tests and tables.
func MustArray(elem BaseType, items ...Value) Value {
	v, err := Array(elem, items...)
	if err != nil {
		panic(err)
	}
	return v
}

// Zero returns the zero payload of t. Arrays are empty.
func Zero(t BaseType) Value {
	if t == TypeTimestamp {
		return Timestamp(time.Unix(0, 0))
	}
	return Value{typ: t}
}

// FromInt64 builds a scalar of type t holding n, wrapping integers to the
// type's width. It returns false for string, array and unknown types.
func FromInt64(t BaseType, n int64) (Value, bool) {
	switch {
	case t.IsInteger():
		return intValue(t, uint64(n)), true
	case t == TypeFloat32:
		return Float32(float32(n)), true
	case t == TypeFloat64:
		return Float64(float64(n)), true
	case t == TypeTimestamp:
		return Timestamp(time.Unix(n, 0)), true
	}
	return Value{}, false
}

// Type returns the base type tag
func (v Value) Type() BaseType { return v.typ }

// ElemType returns the element type of an array, TypeUnknown otherwise
func (v Value) ElemType() BaseType { return v.elem }

// Uint returns the raw integer bits. Signed values are sign-extended.
func (v Value) Uint() uint64 { return v.bits }

// Int returns the integer payload as a signed number
func (v Value) Int() int64 { return int64(v.bits) }

// Float returns the float payload
func (v Value) Float() float64 { return v.num }

// Str returns the string payload
func (v Value) Str() string { return v.str }

// Time returns the timestamp payload
func (v Value) Time() time.Time { return v.ts }

// Elems returns a copy of the array elements
func (v Value) Elems() []Value {
	if v.elems == nil {
		return nil
	}
	out := make([]Value, len(v.elems))
	copy(out, v.elems)
	return out
}

// Len returns the number of array elements, or 1 for a scalar
func (v Value) Len() int {
	if v.typ == TypeArray {
		return len(v.elems)
	}
	return 1
}

// IsValid reports whether v holds data. A value equal to its type's reserved
// sentinel means the field was not present. Floats are valid when finite,
// strings when free of NUL bytes, timestamps always, and arrays when non-empty
// with every element valid.
func (v Value) IsValid() bool {
	switch v.typ {
	case TypeByte, TypeEnum,
		TypeSInt8, TypeUInt8, TypeUInt8z,
		TypeSInt16, TypeUInt16, TypeUInt16z,
		TypeSInt32, TypeUInt32, TypeUInt32z,
		TypeSInt64, TypeUInt64, TypeUInt64z:
		sentinel, _ := v.typ.Invalid()
		return v.bits != sentinel
	case TypeFloat32, TypeFloat64:
		return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	case TypeString:
		return !strings.ContainsRune(v.str, 0)
	case TypeTimestamp:
		return true
	case TypeArray:
		if len(v.elems) == 0 {
			return false
		}
		for _, e := range v.elems {
			if !e.IsValid() {
				return false
			}
		}
		return true
	case TypeUnknown:
		return false
	}
	return false
}

// AsFloat64 coerces a numeric-like value to float64. Timestamps yield epoch
// seconds. Strings, arrays and unknown values yield false.
func (v Value) AsFloat64() (float64, bool) {
	switch {
	case v.typ.IsInteger():
		if v.typ.Signed() {
			return float64(int64(v.bits)), true
		}
		return float64(v.bits), true
	case v.typ.IsFloat():
		return v.num, true
	case v.typ == TypeTimestamp:
		return float64(v.ts.Unix()), true
	}
	return 0, false
}

// AsInt64 coerces a numeric-like value to int64. Unsigned 64-bit values above
// math.MaxInt64 wrap; floats truncate toward zero and saturate, with NaN
// mapping to 0. Timestamps yield epoch seconds.
func (v Value) AsInt64() (int64, bool) {
	switch {
	case v.typ.IsInteger():
		return int64(v.bits), true
	case v.typ.IsFloat():
		return saturateInt64(v.num), true
	case v.typ == TypeTimestamp:
		return v.ts.Unix(), true
	}
	return 0, false
}

func saturateInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// String returns a display form of the payload
func (v Value) String() string {
	switch {
	case v.typ.IsInteger():
		if v.typ.Signed() {
			return strconv.FormatInt(int64(v.bits), 10)
		}
		return strconv.FormatUint(v.bits, 10)
	case v.typ == TypeFloat32:
		return strconv.FormatFloat(v.num, 'g', -1, 32)
	case v.typ == TypeFloat64:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case v.typ == TypeString:
		return v.str
	case v.typ == TypeTimestamp:
		return v.ts.Format(time.RFC3339)
	case v.typ == TypeArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return "<unknown>"
}

// Equal reports whether two values have the same tag and payload. NaN floats
// compare equal to each other so sentinel payloads can be matched.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch {
	case v.typ.IsInteger():
		return v.bits == o.bits
	case v.typ.IsFloat():
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	case v.typ == TypeString:
		return v.str == o.str
	case v.typ == TypeTimestamp:
		return v.ts.Equal(o.ts)
	case v.typ == TypeArray:
		if v.elem != o.elem || len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	}
	return true
}
