// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"sort"

	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/goccy/go-json"
)

// MesgNumType is the field type whose variants map global message numbers to
// message names.
const MesgNumType = "mesg_num"

// Variant is one named value of a field type
type Variant struct {
	Name    string `json:"name"`
	Value   int64  `json:"value"`
	Comment string `json:"comment,omitempty"`
}

// FieldType is a named enumeration over a base type
type FieldType struct {
	name     string
	baseType fit.BaseType
	variants []Variant // ascending by Value, unique
}

// Name returns the type name
func (t FieldType) Name() string { return t.name }

// BaseType returns the underlying wire type
func (t FieldType) BaseType() fit.BaseType { return t.baseType }

// Variant looks up the variant for a raw value
func (t FieldType) Variant(value int64) (Variant, bool) {
	i := sort.Search(len(t.variants), func(i int) bool { return t.variants[i].Value >= value })
	if i < len(t.variants) && t.variants[i].Value == value {
		return t.variants[i], true
	}
	return Variant{}, false
}

// Variants returns all variants in ascending value order
func (t FieldType) Variants() []Variant {
	out := make([]Variant, len(t.variants))
	copy(out, t.variants)
	return out
}

// Len returns the number of variants
func (t FieldType) Len() int { return len(t.variants) }

// MarshalJSON implements json.Marshaler
func (t FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string    `json:"name"`
		BaseType string    `json:"base_type"`
		Variants []Variant `json:"variants"`
	}{t.name, t.baseType.String(), t.variants})
}

// FieldDef is one field slot of a message
type FieldDef struct {
	Number  uint8   `json:"def_number"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Scale   float64 `json:"scale"`
	Offset  float64 `json:"offset"`
	Units   string  `json:"units"`
	Comment string  `json:"comment,omitempty"`
}

// Message is a message definition
type Message struct {
	name   string
	fields map[uint8]FieldDef
	order  []uint8 // ascending
}

// Name returns the message name
func (m Message) Name() string { return m.name }

// Field looks up a field slot by definition number
func (m Message) Field(num uint8) (FieldDef, bool) {
	f, ok := m.fields[num]
	return f, ok
}

// Fields returns all field slots ordered by definition number
func (m Message) Fields() []FieldDef {
	out := make([]FieldDef, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.fields[n])
	}
	return out
}

// Len returns the number of field slots
func (m Message) Len() int { return len(m.order) }

// MarshalJSON implements json.Marshaler
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string     `json:"name"`
		Fields []FieldDef `json:"fields"`
	}{m.name, m.Fields()})
}

// Catalog is a compiled profile. It is never modified after Compile returns
// and may be shared by any number of goroutines.
type Catalog struct {
	types    []FieldType
	messages []Message

	typeIndex   map[string]int
	msgIndex    map[string]int
	msgNumIndex map[uint16]int
}

func newCatalog(types []FieldType, messages []Message) *Catalog {
	c := &Catalog{
		types:       types,
		messages:    messages,
		typeIndex:   make(map[string]int, len(types)),
		msgIndex:    make(map[string]int, len(messages)),
		msgNumIndex: make(map[uint16]int),
	}
	for i, t := range types {
		c.typeIndex[t.name] = i
	}
	for i, m := range messages {
		c.msgIndex[m.name] = i
	}
	if mesgNum, ok := c.FieldType(MesgNumType); ok {
		for _, v := range mesgNum.variants {
			idx, ok := c.msgIndex[v.Name]
			if ok && v.Value >= 0 && v.Value <= 0xFFFF {
				c.msgNumIndex[uint16(v.Value)] = idx
			}
		}
	}
	return c
}

// FieldType looks up a field type by name
func (c *Catalog) FieldType(name string) (FieldType, bool) {
	i, ok := c.typeIndex[name]
	if !ok {
		return FieldType{}, false
	}
	return c.types[i], true
}

// FieldTypes returns all field types in source order
func (c *Catalog) FieldTypes() []FieldType {
	out := make([]FieldType, len(c.types))
	copy(out, c.types)
	return out
}

// Message looks up a message by name
func (c *Catalog) Message(name string) (Message, bool) {
	i, ok := c.msgIndex[name]
	if !ok {
		return Message{}, false
	}
	return c.messages[i], true
}

// MessageByNumber looks up a message by global message number through the
// mesg_num field type
func (c *Catalog) MessageByNumber(num uint16) (Message, bool) {
	i, ok := c.msgNumIndex[num]
	if !ok {
		return Message{}, false
	}
	return c.messages[i], true
}

// Messages returns all messages in source order
func (c *Catalog) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Summary holds catalog counts
type Summary struct {
	FieldTypes       int `json:"field_types"`
	Variants         int `json:"variants"`
	Messages         int `json:"messages"`
	Fields           int `json:"fields"`
	NumberedMessages int `json:"numbered_messages"`
}

// Summary counts the catalog contents
func (c *Catalog) Summary() Summary {
	s := Summary{
		FieldTypes:       len(c.types),
		Messages:         len(c.messages),
		NumberedMessages: len(c.msgNumIndex),
	}
	for _, t := range c.types {
		s.Variants += len(t.variants)
	}
	for _, m := range c.messages {
		s.Fields += len(m.order)
	}
	return s
}

// MarshalJSON exports the whole catalog
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Types    []FieldType `json:"types"`
		Messages []Message   `json:"messages"`
	}{c.types, c.messages})
}
