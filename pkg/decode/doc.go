// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package decode applies a compiled profile to raw FIT records.
//
// Known fields take their name, units, scale and offset from the profile and
// carry the physical value raw/scale - offset. Fields and messages the profile
// does not describe keep their raw value under a generated name. Validity is
// always judged on the raw value.
package decode
