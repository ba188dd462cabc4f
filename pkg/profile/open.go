// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a profile source from path: a directory of CSV sheets, an
// .xlsx workbook, or a .yaml/.yml file.
func Load(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	if info.IsDir() {
		return LoadCSVDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return OpenXLSX(path)
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open profile: %w", err)
		}
		defer f.Close()
		return LoadYAML(f)
	}
	return nil, fmt.Errorf("unsupported profile format %q (use .xlsx, .yaml or a CSV directory)", filepath.Ext(path))
}

// Open loads and compiles the profile at path
func Open(path string, opts ...Option) (*Catalog, error) {
	src, err := Load(path)
	if err != nil {
		return nil, err
	}
	cat, err := Compile(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", path, err)
	}
	return cat, nil
}
