// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/fitscope/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Profile and ambient flags
	profilePath string
	configPath  string
	logLevel    string

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "fitscope",
	Short: "FIT Profile Decoder",
	Long: `Fitscope - A CLI tool for applying the FIT profile to raw decode results.

The profile is read from the vendor's Profile.xlsx, a YAML rendition of its
Types and Messages sheets, or a directory holding Types.csv and Messages.csv.
Raw decode results are JSON or CBOR documents produced by a FIT tokenizer.

Settings may also be placed in $XDG_CONFIG_HOME/fitscope/config.toml:

  profile   = "/usr/share/fit/Profile.xlsx"
  format    = "text"
  log_level = "info"
  addr      = ":8080"
  url       = "ws://logger.local/records"
  username  = "rider"

Flags given on the command line always win over the config file.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "P", "", "Profile source (.xlsx, .yaml or CSV directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/fitscope/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

// setup applies the config file and configures logging before any command runs
func setup(cmd *cobra.Command, args []string) error {
	if err := applyConfigFile(cmd, configPath); err != nil {
		return err
	}
	l, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// loadCatalog compiles the profile named by --profile
func loadCatalog() (*profile.Catalog, error) {
	if profilePath == "" {
		return nil, fmt.Errorf("no profile given (use --profile or set profile in the config file)")
	}
	cat, err := profile.Open(profilePath, profile.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	s := cat.Summary()
	logger.Debug().
		Str("profile", profilePath).
		Int("types", s.FieldTypes).
		Int("messages", s.Messages).
		Msg("profile loaded")
	return cat, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
