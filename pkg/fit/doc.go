// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package fit provides the typed value model of the FIT telemetry format.
//
// FIT files are compact, self-describing record streams written by fitness
// and sports devices. Every field on the wire is one of a closed set of base
// types, each with a reserved "invalid" bit pattern meaning the field was not
// present. This package provides the tagged Value type, its validity,
// numeric coercion, little-endian byte encoding and the arithmetic used when
// accumulating values, plus the raw decode result handed over by a byte
// stream tokenizer.
package fit
