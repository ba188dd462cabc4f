// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// OpenXLSX reads the Types and Messages sheets of a Profile.xlsx workbook.
// Text cells stay strings even when they look numeric; other cells are typed
// with InferCell from their raw value.
func OpenXLSX(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	wb := NewWorkbook()
	for _, name := range f.GetSheetList() {
		if name != TypesSheet && name != MessagesSheet {
			continue
		}
		sheet, err := readXLSXSheet(f, name)
		if err != nil {
			return nil, err
		}
		wb.Add(sheet)
	}
	return wb, nil
}

func readXLSXSheet(f *excelize.File, name string) (*Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	sheet := &Sheet{Name: name, Rows: make([][]Cell, len(rows))}
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, raw := range row {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, fmt.Errorf("sheet %s cell %s: %w", name, ref, err)
			}
			switch typ {
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
				cells[c] = StringCell(raw)
			case excelize.CellTypeBool:
				cells[c] = BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
			default:
				cells[c] = InferCell(raw)
			}
		}
		sheet.Rows[r] = cells
	}
	return sheet, nil
}
