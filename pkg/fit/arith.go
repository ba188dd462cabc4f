// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fit

import (
	"errors"
	"fmt"
	"math"
)

// ErrTypeMismatch is matched by every TypeMismatchError
var ErrTypeMismatch = errors.New("fit: type mismatch")

// TypeMismatchError reports operands that cannot be coerced to a common kind
type TypeMismatchError struct {
	Left   BaseType
	Right  BaseType
	Reason string
}

// Error implements the error interface
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("fit: cannot combine %s with %s: %s", e.Left, e.Right, e.Reason)
}

// Is makes errors.Is(err, ErrTypeMismatch) succeed
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Combine adds other to v and returns a new value of v's type.
//
// Integer kinds coerce other to int64 and wrap at their native width. Float
// kinds coerce other to float64. Strings concatenate with strings only.
// Timestamps never combine. An array combined with an array adds pairwise
// over the shorter length and carries the longer operand's tail, so the
// result has max(len(v), len(other)) elements of v's element type. A tail
// element that cannot be held by v's element type is a mismatch; an array
// combined with a scalar adds the scalar to every element.
//
// Failures leave both operands untouched and return a TypeMismatchError.
func (v Value) Combine(other Value) (Value, error) {
	switch v.typ {
	case TypeByte, TypeEnum,
		TypeSInt8, TypeUInt8, TypeUInt8z,
		TypeSInt16, TypeUInt16, TypeUInt16z,
		TypeSInt32, TypeUInt32, TypeUInt32z,
		TypeSInt64, TypeUInt64, TypeUInt64z:
		n, ok := other.AsInt64()
		if !ok {
			return Value{}, mismatch(v, other, "cannot coerce to integer")
		}
		return intValue(v.typ, v.bits+uint64(n)), nil

	case TypeFloat32:
		f, ok := other.AsFloat64()
		if !ok {
			return Value{}, mismatch(v, other, "cannot coerce to float")
		}
		return Float32(float32(v.num) + float32(f)), nil

	case TypeFloat64:
		f, ok := other.AsFloat64()
		if !ok {
			return Value{}, mismatch(v, other, "cannot coerce to float")
		}
		return Float64(v.num + f), nil

	case TypeString:
		if other.typ != TypeString {
			return Value{}, mismatch(v, other, "strings only combine with strings")
		}
		return String(v.str + other.str), nil

	case TypeTimestamp:
		return Value{}, mismatch(v, other, "timestamps are not addable")

	case TypeArray:
		if other.typ == TypeArray {
			return v.combineArrays(other)
		}
		out := make([]Value, len(v.elems))
		for i, e := range v.elems {
			c, err := e.Combine(other)
			if err != nil {
				return Value{}, err
			}
			out[i] = c
		}
		return Value{typ: TypeArray, elem: v.elem, elems: out}, nil

	case TypeUnknown:
		return Value{}, mismatch(v, other, "value has no type")
	}
	return Value{}, mismatch(v, other, "unsupported type")
}

func (v Value) combineArrays(other Value) (Value, error) {
	n := len(v.elems)
	if len(other.elems) > n {
		n = len(other.elems)
	}
	out := make([]Value, n)
	for i := range out {
		switch {
		case i < len(v.elems) && i < len(other.elems):
			c, err := v.elems[i].Combine(other.elems[i])
			if err != nil {
				return Value{}, err
			}
			out[i] = c
		case i < len(v.elems):
			out[i] = v.elems[i]
		case other.elems[i].typ == v.elem:
			out[i] = other.elems[i]
		default:
			// Tail element of another type is re-tagged as v's element
			// type only when its value survives the conversion.
			c, err := Zero(v.elem).Combine(other.elems[i])
			if err != nil {
				return Value{}, err
			}
			if !sameNumber(c, other.elems[i]) {
				return Value{}, mismatch(v, other, "tail element does not fit element type")
			}
			out[i] = c
		}
	}
	return Value{typ: TypeArray, elem: v.elem, elems: out}, nil
}

// sameNumber reports whether a and b hold the same numeric value. NaN matches
// NaN. Non-numeric values always match.
func sameNumber(a, b Value) bool {
	x, okA := a.AsFloat64()
	y, okB := b.AsFloat64()
	if !okA || !okB {
		return true
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.IsNaN(x) && math.IsNaN(y)
	}
	return x == y
}

func mismatch(a, b Value, reason string) *TypeMismatchError {
	return &TypeMismatchError{Left: a.typ, Right: b.typ, Reason: reason}
}
