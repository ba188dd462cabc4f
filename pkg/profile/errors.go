// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is
var (
	ErrMissingSection     = errors.New("missing profile section")
	ErrUnsupportedFeature = errors.New("unsupported profile feature")
)

// CompileError reports a malformed profile cell. Row and Column are zero
// based; Column is -1 when the error concerns a whole sheet.
type CompileError struct {
	Sheet  string
	Row    int
	Column int
	Reason string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("profile %s: %s", e.Sheet, e.Reason)
	}
	return fmt.Sprintf("profile %s row %d column %d: %s", e.Sheet, e.Row+1, e.Column+1, e.Reason)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// UnsupportedFeatureError reports a profile construct the catalog cannot
// represent, such as sub-field rows.
type UnsupportedFeatureError struct {
	Sheet   string
	Row     int
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("profile %s row %d: %s not supported", e.Sheet, e.Row+1, e.Feature)
}

func (e *UnsupportedFeatureError) Unwrap() error {
	return ErrUnsupportedFeature
}

func cellError(sheet string, row, col int, format string, args ...any) *CompileError {
	return &CompileError{Sheet: sheet, Row: row, Column: col, Reason: fmt.Sprintf(format, args...)}
}
