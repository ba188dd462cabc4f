// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/fitscope/pkg/profile"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	listMessages bool
	showMessage  string
	exportPath   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Compile the profile and show its contents",
	Long: `Compile the profile source and print a summary of its types and messages.

Compilation stops at the first malformed row and reports its sheet, row and
column. Sub-field rows are reported as unsupported.`,
	Args: cobra.NoArgs,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().BoolVar(&listMessages, "messages", false, "List every message with its field count")
	profileCmd.Flags().StringVarP(&showMessage, "message", "m", "", "Show the field slots of one message")
	profileCmd.Flags().StringVar(&exportPath, "export", "", "Write the compiled catalog as JSON to this file")
}

func runProfile(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	printSummary(out, cat.Summary())

	if listMessages {
		fmt.Fprintln(out)
		for _, m := range cat.Messages() {
			fmt.Fprintf(out, "  %-32s %4d fields\n", m.Name(), m.Len())
		}
	}

	if showMessage != "" {
		msg, ok := cat.Message(showMessage)
		if !ok {
			return fmt.Errorf("message %q not in profile", showMessage)
		}
		fmt.Fprintln(out)
		printMessage(out, msg)
	}

	if exportPath != "" {
		data, err := json.MarshalIndent(cat, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode catalog: %w", err)
		}
		if err := os.WriteFile(exportPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write catalog: %w", err)
		}
		logger.Info().Str("path", exportPath).Msg("catalog exported")
	}
	return nil
}

func printSummary(w io.Writer, s profile.Summary) {
	fmt.Fprintf(w, "=== Profile ===\n")
	fmt.Fprintf(w, "Field Types:     %8d (%d values)\n", s.FieldTypes, s.Variants)
	fmt.Fprintf(w, "Messages:        %8d (%d numbered)\n", s.Messages, s.NumberedMessages)
	fmt.Fprintf(w, "Field Slots:     %8d\n", s.Fields)
}

func printMessage(w io.Writer, msg profile.Message) {
	fmt.Fprintf(w, "%s\n", msg.Name())
	for _, f := range msg.Fields() {
		line := fmt.Sprintf("  %3d  %-28s %-20s", f.Number, f.Name, f.Type)
		if f.Scale != 1 || f.Offset != 0 {
			line += fmt.Sprintf(" scale=%g offset=%g", f.Scale, f.Offset)
		}
		if f.Units != "" {
			line += " [" + f.Units + "]"
		}
		fmt.Fprintln(w, line)
	}
}
