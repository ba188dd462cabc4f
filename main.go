// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Fitscope - FIT Profile Decoder
//
// A CLI tool for compiling FIT profiles and decoding raw FIT records
// in human-readable format.

package main

import (
	"os"

	"github.com/Thermoquad/fitscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
