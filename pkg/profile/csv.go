// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadCSVSheet reads one sheet from CSV. Cells are typed with InferCell.
func ReadCSVSheet(name string, r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", name, err)
	}

	sheet := &Sheet{Name: name, Rows: make([][]Cell, len(records))}
	for i, rec := range records {
		row := make([]Cell, len(rec))
		for j, s := range rec {
			row[j] = InferCell(s)
		}
		sheet.Rows[i] = row
	}
	return sheet, nil
}

// LoadCSVDir reads Types.csv and Messages.csv from dir. Missing files are
// left out so the compiler reports the missing section.
func LoadCSVDir(dir string) (*Workbook, error) {
	wb := NewWorkbook()
	for _, name := range []string{TypesSheet, MessagesSheet} {
		path := filepath.Join(dir, name+".csv")
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		sheet, err := ReadCSVSheet(name, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		wb.Add(sheet)
	}
	return wb, nil
}
