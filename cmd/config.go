// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// fileConfig is the on-disk config. Every key is optional.
type fileConfig struct {
	Profile  string `toml:"profile"`
	Format   string `toml:"format"`
	LogLevel string `toml:"log_level"`
	Addr     string `toml:"addr"`
	URL      string `toml:"url"`
	Username string `toml:"username"`
}

// configKeys maps config keys to the flags they default
var configKeys = []struct {
	key  string
	flag string
	get  func(*fileConfig) string
}{
	{"profile", "profile", func(c *fileConfig) string { return c.Profile }},
	{"format", "format", func(c *fileConfig) string { return c.Format }},
	{"log_level", "log-level", func(c *fileConfig) string { return c.LogLevel }},
	{"addr", "addr", func(c *fileConfig) string { return c.Addr }},
	{"url", "url", func(c *fileConfig) string { return c.URL }},
	{"username", "username", func(c *fileConfig) string { return c.Username }},
}

// defaultConfigPath returns $XDG_CONFIG_HOME/fitscope/config.toml
func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fitscope", "config.toml")
}

// applyConfigFile loads path (or the default location) and sets every flag of
// cmd that the user did not set explicitly. A missing default file is not an
// error; a missing explicit file is.
func applyConfigFile(cmd *cobra.Command, path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return nil
		}
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}

	return applyConfig(cmd.Flags(), &raw, meta)
}

// applyConfig copies defined config values into flags that were not changed
// on the command line. Flags the command does not have are skipped.
func applyConfig(flags *pflag.FlagSet, raw *fileConfig, meta toml.MetaData) error {
	for _, k := range configKeys {
		if !meta.IsDefined(k.key) {
			continue
		}
		f := flags.Lookup(k.flag)
		if f == nil || f.Changed {
			continue
		}
		if err := flags.Set(k.flag, strings.TrimSpace(k.get(raw))); err != nil {
			return fmt.Errorf("config %s: %w", k.key, err)
		}
	}
	return nil
}
