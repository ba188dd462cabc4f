// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"math"
	"strconv"
	"strings"
)

// CellKind identifies what a spreadsheet cell holds
type CellKind int

// Cell kinds
const (
	CellEmpty CellKind = iota
	CellString
	CellInt
	CellFloat
	CellBool
)

// String returns the kind name used in compile errors
func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellString:
		return "string"
	case CellInt:
		return "int"
	case CellFloat:
		return "float"
	case CellBool:
		return "bool"
	default:
		return "cell(" + strconv.Itoa(int(k)) + ")"
	}
}

// Cell is one spreadsheet cell
type Cell struct {
	Kind  CellKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// StringCell creates a string cell. Blank strings become empty cells.
func StringCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellString, Str: s}
}

// IntCell creates an integer cell
func IntCell(n int64) Cell { return Cell{Kind: CellInt, Int: n} }

// FloatCell creates a float cell
func FloatCell(f float64) Cell { return Cell{Kind: CellFloat, Float: f} }

// BoolCell creates a boolean cell
func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// InferCell types a textual cell the way a spreadsheet would: blank is
// empty, integers and floats become numeric, anything else stays a string.
// Hex literals such as "0x1F" stay strings.
func InferCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Cell{}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return IntCell(n)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return FloatCell(f)
	}
	return Cell{Kind: CellString, Str: s}
}

// IsEmpty reports whether the cell holds nothing
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Text returns the string payload of a string cell
func (c Cell) Text() (string, bool) {
	if c.Kind != CellString {
		return "", false
	}
	return c.Str, true
}

// Number returns the payload of a numeric cell as float64
func (c Cell) Number() (float64, bool) {
	switch c.Kind {
	case CellInt:
		return float64(c.Int), true
	case CellFloat:
		return c.Float, true
	}
	return 0, false
}

// Display returns the cell rendered as text, used for error context and for
// lenient columns such as units.
func (c Cell) Display() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellInt:
		return strconv.FormatInt(c.Int, 10)
	case CellFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	}
	return ""
}

// Sheet is a named table of cells. Rows may be ragged.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Cell returns the cell at row, col; out of range cells are empty
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return Cell{}
	}
	return s.Rows[row][col]
}

// rowIsBlank reports whether every cell of a row is empty
func (s *Sheet) rowIsBlank(row int) bool {
	for _, c := range s.Rows[row] {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Source provides named sheets to the compiler
type Source interface {
	Sheet(name string) (*Sheet, bool)
}

// Workbook is an in-memory Source
type Workbook struct {
	sheets map[string]*Sheet
	order  []string
}

// NewWorkbook creates a workbook holding the given sheets
func NewWorkbook(sheets ...*Sheet) *Workbook {
	wb := &Workbook{sheets: make(map[string]*Sheet)}
	for _, s := range sheets {
		wb.Add(s)
	}
	return wb
}

// Add adds or replaces a sheet
func (wb *Workbook) Add(s *Sheet) {
	if _, ok := wb.sheets[s.Name]; !ok {
		wb.order = append(wb.order, s.Name)
	}
	wb.sheets[s.Name] = s
}

// Sheet implements Source
func (wb *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := wb.sheets[name]
	return s, ok
}

// SheetNames returns sheet names in insertion order
func (wb *Workbook) SheetNames() []string {
	out := make([]string, len(wb.order))
	copy(out, wb.order)
	return out
}
