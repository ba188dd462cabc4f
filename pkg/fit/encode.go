// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fit

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Bytes encodes the payload in wire byte order, which is always little-endian
// regardless of the host. Strings encode as their raw bytes and arrays as the
// concatenation of their elements.
func (v Value) Bytes() []byte {
	return v.AppendBytes(nil)
}

// AppendBytes appends the little-endian encoding of v to dst
func (v Value) AppendBytes(dst []byte) []byte {
	switch v.typ {
	case TypeByte, TypeEnum, TypeSInt8, TypeUInt8, TypeUInt8z:
		return append(dst, byte(v.bits))
	case TypeSInt16, TypeUInt16, TypeUInt16z:
		return binary.LittleEndian.AppendUint16(dst, uint16(v.bits))
	case TypeSInt32, TypeUInt32, TypeUInt32z:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.bits))
	case TypeSInt64, TypeUInt64, TypeUInt64z:
		return binary.LittleEndian.AppendUint64(dst, v.bits)
	case TypeFloat32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v.num)))
	case TypeFloat64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.num))
	case TypeString:
		return append(dst, v.str...)
	case TypeTimestamp:
		return binary.LittleEndian.AppendUint64(dst, uint64(v.ts.Unix()))
	case TypeArray:
		for _, e := range v.elems {
			dst = e.AppendBytes(dst)
		}
		return dst
	case TypeUnknown:
		return dst
	}
	return dst
}

// FromBytes decodes one little-endian scalar of type t. Strings take the whole
// buffer. Arrays are not self-delimiting and are rejected.
func FromBytes(t BaseType, b []byte) (Value, error) {
	if t == TypeString {
		return String(string(b)), nil
	}
	size := t.Size()
	if size == 0 {
		return Value{}, fmt.Errorf("fit: cannot decode %s from bytes", t)
	}
	if len(b) != size {
		return Value{}, fmt.Errorf("fit: %s needs %d bytes, got %d", t, size, len(b))
	}

	var raw uint64
	switch size {
	case 1:
		raw = uint64(b[0])
	case 2:
		raw = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		raw = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		raw = binary.LittleEndian.Uint64(b)
	}

	switch t {
	case TypeFloat32:
		return Float32(math.Float32frombits(uint32(raw))), nil
	case TypeFloat64:
		return Float64(math.Float64frombits(raw)), nil
	case TypeTimestamp:
		return Timestamp(time.Unix(int64(raw), 0)), nil
	}
	return intValue(t, raw), nil
}
