// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package profile compiles the FIT profile tables into an immutable Catalog.
//
// The profile is distributed as a workbook with two sheets. Types holds the
// enumerations (a header row naming the type and its base type, followed by
// one row per named value). Messages holds the message definitions (a row
// naming the message, followed by one row per field slot).
//
// Sources can be read from the vendor's .xlsx file, a YAML document or a
// directory of CSV files. Compile does no I/O of its own.
package profile
