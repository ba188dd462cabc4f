// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decode

import (
	"fmt"

	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/Thermoquad/fitscope/pkg/profile"
	"github.com/rs/zerolog"
)

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger for degrade messages, emitted at debug level
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// Resolver applies a profile catalog to raw records. It holds no mutable
// state and can be shared between goroutines.
type Resolver struct {
	cat *profile.Catalog
	log zerolog.Logger
}

// NewResolver creates a resolver over cat
func NewResolver(cat *profile.Catalog, opts ...Option) *Resolver {
	r := &Resolver{cat: cat, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog the resolver reads from
func (r *Resolver) Catalog() *profile.Catalog {
	return r.cat
}

// UnknownFieldName is the name given to fields missing from the profile
func UnknownFieldName(num uint8) string {
	return fmt.Sprintf("unknown_field_%d", num)
}

// unknownMessage is the kind of a message with neither a name nor a number
const unknownMessage = "unknown_message"

// UnknownMessageName is the kind given to unnamed messages missing from the
// profile
func UnknownMessageName(num uint16) string {
	return fmt.Sprintf("unknown_message_%d", num)
}

// ResolveRecord resolves every field of raw. It never fails: fields the
// profile does not describe keep their raw value under a generated name.
func (r *Resolver) ResolveRecord(raw fit.RawRecord) Record {
	msg, known := r.lookupMessage(raw)

	rec := Record{
		Kind:         raw.Kind,
		GlobalNumber: raw.GlobalNumber,
		TimeOffset:   raw.TimeOffset,
		Fields:       make([]Field, 0, len(raw.Fields)),
		Known:        known,
	}
	if known {
		rec.Kind = msg.Name()
	} else {
		if rec.Kind == "" {
			rec.Kind = unknownMessage
			if raw.GlobalNumber != nil {
				rec.Kind = UnknownMessageName(*raw.GlobalNumber)
			}
		}
		r.log.Debug().Str("kind", rec.Kind).Msg("message not in profile")
	}

	for _, rf := range raw.Fields {
		var (
			def profile.FieldDef
			ok  bool
		)
		if known {
			def, ok = msg.Field(rf.Number)
		}
		if !ok {
			if known {
				r.log.Debug().
					Str("kind", rec.Kind).
					Uint8("def_number", rf.Number).
					Msg("field not in profile")
			}
			rec.Fields = append(rec.Fields, unknownField(rf))
			continue
		}
		rec.Fields = append(rec.Fields, r.resolveField(rf, def))
	}
	return rec
}

func (r *Resolver) lookupMessage(raw fit.RawRecord) (profile.Message, bool) {
	if r.cat == nil {
		return profile.Message{}, false
	}
	if raw.Kind != "" {
		if msg, ok := r.cat.Message(raw.Kind); ok {
			return msg, true
		}
	}
	if raw.GlobalNumber != nil {
		return r.cat.MessageByNumber(*raw.GlobalNumber)
	}
	return profile.Message{}, false
}

func unknownField(rf fit.RawField) Field {
	return Field{
		Number:   rf.Number,
		Name:     UnknownFieldName(rf.Number),
		Scale:    1,
		Offset:   0,
		Value:    rf.Value,
		RawValue: rf.Value,
	}
}

func (r *Resolver) resolveField(rf fit.RawField, def profile.FieldDef) Field {
	f := Field{
		Number:   rf.Number,
		Name:     def.Name,
		Units:    def.Units,
		Scale:    def.Scale,
		Offset:   def.Offset,
		Value:    rf.Value,
		RawValue: rf.Value,
		Known:    true,
		TypeName: def.Type,
	}
	if f.Scale == 0 {
		f.Scale = 1
	}

	if typ, ok := r.cat.FieldType(def.Type); ok {
		f.Enum = true
		f.Label = enumLabel(typ, rf)
	}

	if f.Scale != 1 || f.Offset != 0 {
		f.Value = applyScale(rf.Value, f.Scale, f.Offset)
	}
	return f
}

// enumLabel names the raw value when the slot's type is an enumeration the
// raw base type belongs to. Unmatched values stay unnamed.
func enumLabel(typ profile.FieldType, rf fit.RawField) string {
	bt := rf.Value.Type()
	if bt != fit.TypeEnum && bt != typ.BaseType() {
		return ""
	}
	if !bt.IsInteger() || !rf.Value.IsValid() {
		return ""
	}
	n, _ := rf.Value.AsInt64()
	if v, ok := typ.Variant(n); ok {
		return v.Name
	}
	return ""
}

// scalable reports whether values of t take part in scale/offset arithmetic.
// Bytes and enums are opaque codes.
func scalable(t fit.BaseType) bool {
	return t.IsNumeric() && t != fit.TypeByte && t != fit.TypeEnum
}

// applyScale computes raw / scale - offset as float64. Non-numeric values
// pass through unchanged.
func applyScale(v fit.Value, scale, offset float64) fit.Value {
	switch {
	case scalable(v.Type()):
		n, _ := v.AsFloat64()
		return fit.Float64(n/scale - offset)
	case v.Type() == fit.TypeArray && scalable(v.ElemType()):
		elems := v.Elems()
		out := make([]fit.Value, len(elems))
		for i, e := range elems {
			n, _ := e.AsFloat64()
			out[i] = fit.Float64(n/scale - offset)
		}
		return fit.MustArray(fit.TypeFloat64, out...)
	}
	return v
}

// Decode resolves every record of raw against cat, keeping file order
func Decode(raw *fit.RawFile, cat *profile.Catalog, opts ...Option) *Document {
	return NewResolver(cat, opts...).Decode(raw)
}

// Decode resolves every record of raw, keeping file order. A nil raw yields
// an empty document.
func (r *Resolver) Decode(raw *fit.RawFile) *Document {
	if raw == nil {
		return &Document{Records: []Record{}}
	}
	doc := &Document{
		Header:  raw.Header,
		Records: make([]Record, 0, len(raw.Records)),
		CRC:     raw.CRC,
	}
	for _, rec := range raw.Records {
		doc.Records = append(doc.Records, r.ResolveRecord(rec))
	}
	r.log.Debug().Int("records", len(doc.Records)).Msg("document decoded")
	return doc
}
