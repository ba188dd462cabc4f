// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// logLevelEnv overrides the log level when no flag or config value is set
const logLevelEnv = "FITSCOPE_LOG_LEVEL"

// newLogger builds the console logger. Output goes to stderr so decoded
// documents on stdout stay clean.
func newLogger(level string) (zerolog.Logger, error) {
	if level == "" {
		level = os.Getenv(logLevelEnv)
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger(), nil
}
