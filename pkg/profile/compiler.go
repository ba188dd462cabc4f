// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/rs/zerolog"
)

// Sheet names
const (
	TypesSheet    = "Types"
	MessagesSheet = "Messages"
)

// Types sheet columns
const (
	colTypeName = iota
	colBaseType
	colVariantName
	colVariantValue
	colTypeComment
)

// Messages sheet columns
const (
	colMessageName = iota
	colDefNumber
	colFieldName
	colFieldType
	colArray
	colComponents
	colScale
	colOffset
	colUnits
	colBits
	colAccumulate
	colRefFieldName
	colRefFieldValue
	colFieldComment
)

// headerRows is the number of leading rows skipped on each sheet
const headerRows = 1

// Option configures Compile
type Option func(*compiler)

// WithLogger sets the logger used for debug output while compiling
func WithLogger(log zerolog.Logger) Option {
	return func(c *compiler) {
		c.log = log
	}
}

type compiler struct {
	log zerolog.Logger
}

// Compile builds a Catalog from the Types and Messages sheets of src.
// No catalog is returned on error.
func Compile(src Source, opts ...Option) (*Catalog, error) {
	c := &compiler{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}

	types, err := c.processTypes(src)
	if err != nil {
		return nil, err
	}
	messages, err := c.processMessages(src)
	if err != nil {
		return nil, err
	}

	cat := newCatalog(types, messages)
	c.log.Debug().
		Int("types", len(types)).
		Int("messages", len(messages)).
		Msg("profile compiled")
	return cat, nil
}

func requireSheet(src Source, name string) (*Sheet, error) {
	s, ok := src.Sheet(name)
	if !ok || s == nil {
		return nil, &CompileError{Sheet: name, Column: -1, Reason: "sheet not found", Err: ErrMissingSection}
	}
	return s, nil
}

// ============================================================
// Types
// ============================================================

type typeBuilder struct {
	name     string
	baseType fit.BaseType
	variants map[int64]Variant
}

func (b *typeBuilder) build() FieldType {
	t := FieldType{name: b.name, baseType: b.baseType, variants: make([]Variant, 0, len(b.variants))}
	for _, v := range b.variants {
		t.variants = append(t.variants, v)
	}
	sort.Slice(t.variants, func(i, j int) bool { return t.variants[i].Value < t.variants[j].Value })
	return t
}

func (c *compiler) processTypes(src Source) ([]FieldType, error) {
	sheet, err := requireSheet(src, TypesSheet)
	if err != nil {
		return nil, err
	}

	var (
		types   []FieldType
		index   = make(map[string]int)
		current *typeBuilder
	)
	flush := func() {
		if current == nil {
			return
		}
		t := current.build()
		if i, ok := index[t.name]; ok {
			types[i] = t
		} else {
			index[t.name] = len(types)
			types = append(types, t)
		}
		current = nil
	}

	for row := headerRows; row < len(sheet.Rows); row++ {
		if sheet.rowIsBlank(row) {
			continue
		}

		nameCell := sheet.Cell(row, colTypeName)
		if !nameCell.IsEmpty() {
			name, err := requireText(sheet, row, colTypeName)
			if err != nil {
				return nil, err
			}
			baseName, err := requireText(sheet, row, colBaseType)
			if err != nil {
				return nil, err
			}
			bt, ok := fit.ParseBaseType(baseName)
			if !ok {
				return nil, cellError(sheet.Name, row, colBaseType, "unknown base type %q for type %q", baseName, name)
			}
			flush()
			current = &typeBuilder{name: name, baseType: bt, variants: make(map[int64]Variant)}
			continue
		}

		if sheet.Cell(row, colVariantName).IsEmpty() {
			// Comment or label row
			continue
		}
		if current == nil {
			return nil, cellError(sheet.Name, row, colVariantName, "variant row before any type definition")
		}
		variantName, err := requireText(sheet, row, colVariantName)
		if err != nil {
			return nil, err
		}
		value, err := variantValue(sheet, row)
		if err != nil {
			return nil, err
		}
		if prev, dup := current.variants[value]; dup {
			c.log.Debug().
				Str("type", current.name).
				Int64("value", value).
				Str("previous", prev.Name).
				Str("name", variantName).
				Msg("duplicate variant value, keeping last")
		}
		current.variants[value] = Variant{
			Name:    variantName,
			Value:   value,
			Comment: sheet.Cell(row, colTypeComment).Display(),
		}
	}
	flush()
	return types, nil
}

func variantValue(sheet *Sheet, row int) (int64, error) {
	cell := sheet.Cell(row, colVariantValue)
	switch cell.Kind {
	case CellInt:
		return cell.Int, nil
	case CellFloat:
		if cell.Float != math.Trunc(cell.Float) || cell.Float >= math.MaxInt64 || cell.Float < math.MinInt64 {
			return 0, cellError(sheet.Name, row, colVariantValue, "variant value %v is not an integer", cell.Float)
		}
		return int64(cell.Float), nil
	case CellString:
		s := strings.TrimSpace(cell.Str)
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, "0x") {
			n, err := strconv.ParseUint(lower[2:], 16, 64)
			if err != nil || n > math.MaxInt64 {
				return 0, cellError(sheet.Name, row, colVariantValue, "invalid hex variant value %q", cell.Str)
			}
			return int64(n), nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		return 0, cellError(sheet.Name, row, colVariantValue, "invalid variant value %q", cell.Str)
	case CellEmpty:
		return 0, cellError(sheet.Name, row, colVariantValue, "missing variant value")
	}
	return 0, cellError(sheet.Name, row, colVariantValue, "variant value must be a number, got %s", cell.Kind)
}

// ============================================================
// Messages
// ============================================================

type messageBuilder struct {
	name   string
	fields map[uint8]FieldDef
}

func (b *messageBuilder) build() Message {
	m := Message{name: b.name, fields: b.fields, order: make([]uint8, 0, len(b.fields))}
	for n := range b.fields {
		m.order = append(m.order, n)
	}
	sort.Slice(m.order, func(i, j int) bool { return m.order[i] < m.order[j] })
	return m
}

func (c *compiler) processMessages(src Source) ([]Message, error) {
	sheet, err := requireSheet(src, MessagesSheet)
	if err != nil {
		return nil, err
	}

	var (
		messages []Message
		index    = make(map[string]int)
		current  *messageBuilder
	)
	flush := func() {
		if current == nil {
			return
		}
		m := current.build()
		if i, ok := index[m.name]; ok {
			messages[i] = m
		} else {
			index[m.name] = len(messages)
			messages = append(messages, m)
		}
		current = nil
	}

	for row := headerRows; row < len(sheet.Rows); row++ {
		if sheet.rowIsBlank(row) {
			continue
		}

		if !sheet.Cell(row, colMessageName).IsEmpty() {
			name, err := requireText(sheet, row, colMessageName)
			if err != nil {
				return nil, err
			}
			flush()
			current = &messageBuilder{name: name, fields: make(map[uint8]FieldDef)}
			continue
		}

		if sheet.Cell(row, colDefNumber).IsEmpty() {
			if !sheet.Cell(row, colFieldName).IsEmpty() {
				return nil, &UnsupportedFeatureError{Sheet: sheet.Name, Row: row, Feature: "sub-field definition"}
			}
			// Section label such as "Common Messages"
			c.log.Debug().
				Str("sheet", sheet.Name).
				Int("row", row+1).
				Str("text", sheet.Cell(row, colFieldComment).Display()).
				Msg("row without message name or field number, skipping")
			continue
		}

		if current == nil {
			return nil, cellError(sheet.Name, row, colDefNumber, "field row before any message definition")
		}
		field, err := c.fieldRow(sheet, row)
		if err != nil {
			return nil, err
		}
		if _, dup := current.fields[field.Number]; dup {
			c.log.Debug().
				Str("message", current.name).
				Uint8("def_number", field.Number).
				Msg("duplicate field slot, keeping last")
		}
		current.fields[field.Number] = field
	}
	flush()
	return messages, nil
}

func (c *compiler) fieldRow(sheet *Sheet, row int) (FieldDef, error) {
	numCell := sheet.Cell(row, colDefNumber)
	n, ok := numCell.Number()
	if !ok {
		if s, isText := numCell.Text(); isText {
			if parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				n, ok = float64(parsed), true
			}
		}
	}
	if !ok || n != math.Trunc(n) || n < 0 || n > 255 {
		return FieldDef{}, cellError(sheet.Name, row, colDefNumber, "definition number %q must be an integer in 0..255", numCell.Display())
	}

	name, err := requireText(sheet, row, colFieldName)
	if err != nil {
		return FieldDef{}, err
	}
	typeName, err := requireText(sheet, row, colFieldType)
	if err != nil {
		return FieldDef{}, err
	}

	scale, err := c.numberOr(sheet, row, colScale, 1.0)
	if err != nil {
		return FieldDef{}, err
	}
	if scale == 0 {
		return FieldDef{}, cellError(sheet.Name, row, colScale, "scale must not be zero")
	}
	offset, err := c.numberOr(sheet, row, colOffset, 0.0)
	if err != nil {
		return FieldDef{}, err
	}

	return FieldDef{
		Number:  uint8(n),
		Name:    name,
		Type:    typeName,
		Scale:   scale,
		Offset:  offset,
		Units:   strings.TrimSpace(sheet.Cell(row, colUnits).Display()),
		Comment: sheet.Cell(row, colFieldComment).Display(),
	}, nil
}

// numberOr reads an optional numeric cell. Comma separated component lists
// fall back to def.
func (c *compiler) numberOr(sheet *Sheet, row, col int, def float64) (float64, error) {
	cell := sheet.Cell(row, col)
	if cell.IsEmpty() {
		return def, nil
	}
	if f, ok := cell.Number(); ok {
		return f, nil
	}
	s, ok := cell.Text()
	if !ok {
		return 0, cellError(sheet.Name, row, col, "expected number, got %s", cell.Kind)
	}
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		c.log.Debug().
			Str("sheet", sheet.Name).
			Int("row", row+1).
			Str("value", s).
			Msg("component list in scalar column, using default")
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, cellError(sheet.Name, row, col, "invalid number %q", s)
	}
	return f, nil
}

func requireText(sheet *Sheet, row, col int) (string, error) {
	cell := sheet.Cell(row, col)
	s, ok := cell.Text()
	if !ok {
		if cell.IsEmpty() {
			return "", cellError(sheet.Name, row, col, "missing required value")
		}
		return "", cellError(sheet.Name, row, col, "expected string, got %s %q", cell.Kind, cell.Display())
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", cellError(sheet.Name, row, col, "missing required value")
	}
	return s, nil
}
