// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

// yamlProfile is the on-disk shape of a YAML profile:
//
//	sheets:
//	  Types:
//	    - [Type Name, Base Type, Value Name, Value, Comment]
//	    - [file, enum]
//	    - [null, null, activity, 4]
//	  Messages:
//	    - [Message Name, Field Def #, Field Name, Field Type]
type yamlProfile struct {
	Sheets map[string][][]any `yaml:"sheets"`
}

// LoadYAML reads a profile workbook from YAML. Scalars keep their YAML kinds:
// null is empty, integers and floats are numeric, strings stay strings.
func LoadYAML(r io.Reader) (*Workbook, error) {
	var doc yamlProfile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profile: %w", err)
	}
	if len(doc.Sheets) == 0 {
		return nil, fmt.Errorf("YAML profile has no sheets")
	}

	names := make([]string, 0, len(doc.Sheets))
	for name := range doc.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	wb := NewWorkbook()
	for _, name := range names {
		sheet := &Sheet{Name: name, Rows: make([][]Cell, len(doc.Sheets[name]))}
		for i, row := range doc.Sheets[name] {
			cells := make([]Cell, len(row))
			for j, v := range row {
				c, err := yamlCell(v)
				if err != nil {
					return nil, fmt.Errorf("sheet %s row %d column %d: %w", name, i+1, j+1, err)
				}
				cells[j] = c
			}
			sheet.Rows[i] = cells
		}
		wb.Add(sheet)
	}
	return wb, nil
}

func yamlCell(v any) (Cell, error) {
	switch x := v.(type) {
	case nil:
		return Cell{}, nil
	case string:
		return StringCell(x), nil
	case int:
		return IntCell(int64(x)), nil
	case int64:
		return IntCell(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return FloatCell(float64(x)), nil
		}
		return IntCell(int64(x)), nil
	case float64:
		return FloatCell(x), nil
	case bool:
		return BoolCell(x), nil
	}
	return Cell{}, fmt.Errorf("unsupported YAML cell %T", v)
}
