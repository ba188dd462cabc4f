// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fit

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

// Interchange form of a Value: the base type name travels with the payload so
// consumers can tell an enum 3 from a uint8 3.
//
//	{"type": "uint8", "data": 255}
//	{"type": "array", "elem": "sint16", "data": [{"type": "sint16", "data": -4}]}
//	{"type": "float32", "data": "NaN"}
type wireValue struct {
	Type string `json:"type" cbor:"type"`
	Elem string `json:"elem,omitempty" cbor:"elem,omitempty"`
	Data any    `json:"data" cbor:"data"`
}

type wireValueJSON struct {
	Type string          `json:"type"`
	Elem string          `json:"elem"`
	Data json.RawMessage `json:"data"`
}

type wireValueCBOR struct {
	Type string          `cbor:"type"`
	Elem string          `cbor:"elem"`
	Data cbor.RawMessage `cbor:"data"`
}

func (v Value) wire() (wireValue, error) {
	w := wireValue{Type: v.typ.String()}
	switch {
	case v.typ.IsInteger():
		if v.typ.Signed() {
			w.Data = int64(v.bits)
		} else {
			w.Data = v.bits
		}
	case v.typ.IsFloat():
		switch {
		case math.IsNaN(v.num) || math.IsInf(v.num, 0):
			w.Data = strconv.FormatFloat(v.num, 'g', -1, 64)
		case v.typ == TypeFloat32:
			w.Data = float32(v.num)
		default:
			w.Data = v.num
		}
	case v.typ == TypeString:
		w.Data = v.str
	case v.typ == TypeTimestamp:
		w.Data = v.ts.Format(time.RFC3339)
	case v.typ == TypeArray:
		w.Elem = v.elem.String()
		elems := v.elems
		if elems == nil {
			elems = []Value{}
		}
		w.Data = elems
	default:
		return w, fmt.Errorf("fit: cannot encode value of type %s", v.typ)
	}
	return w, nil
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	w, err := v.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValueJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("fit: decode value: %w", err)
	}
	out, err := fromWire(w.Type, w.Elem, func(dst any) error {
		return json.Unmarshal(w.Data, dst)
	})
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalCBOR implements cbor.Marshaler
func (v Value) MarshalCBOR() ([]byte, error) {
	w, err := v.wire()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler
func (v *Value) UnmarshalCBOR(data []byte) error {
	var w wireValueCBOR
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("fit: decode value: %w", err)
	}
	out, err := fromWire(w.Type, w.Elem, func(dst any) error {
		return cbor.Unmarshal(w.Data, dst)
	})
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// fromWire rebuilds a Value from its type name and a payload decoder shared by
// the JSON and CBOR paths.
func fromWire(typeName, elemName string, decode func(dst any) error) (Value, error) {
	t, ok := ParseBaseType(typeName)
	if !ok {
		return Value{}, fmt.Errorf("fit: unknown base type %q", typeName)
	}

	switch {
	case t.IsInteger() && t.Signed():
		var n int64
		if err := decode(&n); err != nil {
			return Value{}, fmt.Errorf("fit: %s payload: %w", t, err)
		}
		if normalize(t, uint64(n)) != uint64(n) {
			return Value{}, fmt.Errorf("fit: %s payload out of range: %d", t, n)
		}
		return intValue(t, uint64(n)), nil

	case t.IsInteger():
		var n uint64
		if err := decode(&n); err != nil {
			return Value{}, fmt.Errorf("fit: %s payload: %w", t, err)
		}
		if normalize(t, n) != n {
			return Value{}, fmt.Errorf("fit: %s payload out of range: %d", t, n)
		}
		return intValue(t, n), nil

	case t.IsFloat():
		var f float64
		if err := decode(&f); err != nil {
			var s string
			if decode(&s) != nil {
				return Value{}, fmt.Errorf("fit: %s payload: %w", t, err)
			}
			parsed, perr := strconv.ParseFloat(s, 64)
			if perr != nil {
				return Value{}, fmt.Errorf("fit: %s payload: %w", t, perr)
			}
			f = parsed
		}
		if t == TypeFloat32 {
			return Float32(float32(f)), nil
		}
		return Float64(f), nil

	case t == TypeString:
		var s string
		if err := decode(&s); err != nil {
			return Value{}, fmt.Errorf("fit: string payload: %w", err)
		}
		return String(s), nil

	case t == TypeTimestamp:
		var s string
		if err := decode(&s); err != nil {
			return Value{}, fmt.Errorf("fit: timestamp payload: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Value{}, fmt.Errorf("fit: timestamp payload: %w", err)
		}
		return Timestamp(ts), nil

	case t == TypeArray:
		elem, ok := ParseBaseType(elemName)
		if !ok {
			return Value{}, fmt.Errorf("fit: unknown array element type %q", elemName)
		}
		var items []Value
		if err := decode(&items); err != nil {
			return Value{}, fmt.Errorf("fit: array payload: %w", err)
		}
		return Array(elem, items...)
	}
	return Value{}, fmt.Errorf("fit: unsupported base type %s", t)
}
