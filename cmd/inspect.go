// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Thermoquad/fitscope/pkg/decode"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll bool
	useTUI  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <raw-file>",
	Short: "Detect and summarise anomalies in a raw decode result",
	Long: `Decode a raw decode result and report anything the profile could not
explain, with statistics.

This command validates each record and detects:
  - Messages the profile does not define
  - Fields the profile does not define for a known message
  - Fields holding their base type's invalid value
  - Enum values with no named variant

By default, only anomalies are displayed. Use --show-all to display clean
records too, or --tui for an interactive viewer.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all records (not just anomalies)")
	inspectCmd.Flags().BoolVar(&useTUI, "tui", false, "Use terminal UI")
	inspectCmd.Flags().StringVar(&inputFormat, "input-format", "", "Raw input format (json, cbor; default by extension)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	raw, err := readRawFile(args[0], inputFormat)
	if err != nil {
		return err
	}
	resolver := decode.NewResolver(cat, decode.WithLogger(logger))

	if useTUI {
		return runTUI(args[0], showAll, func(send func(tea.Msg)) {
			for _, r := range raw.Records {
				rec := resolver.ResolveRecord(r)
				send(recordMsg{record: &rec, anomalies: decode.ValidateRecord(rec)})
			}
			send(feedDoneMsg{})
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fitscope - Inspect\n")
	fmt.Fprintf(out, "Input: %s (%d records)\n", args[0], len(raw.Records))
	fmt.Fprint(out, decode.FormatHeader(raw.Header))
	fmt.Fprintln(out)

	stats := decode.NewStatistics()
	for i, r := range raw.Records {
		rec := resolver.ResolveRecord(r)
		anomalies := decode.ValidateRecord(rec)
		stats.Update(&rec, nil, anomalies)

		if len(anomalies) > 0 {
			printAnomalies(out, i, rec, anomalies)
		} else if showAll {
			fmt.Fprintf(out, "#%-5d %s", i, decode.FormatRecord(rec))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, stats.String())
	return nil
}

// printAnomalies prints the anomalies of one record in highlighted format
func printAnomalies(w io.Writer, index int, rec decode.Record, anomalies []decode.ValidationError) {
	fmt.Fprintf(w, "#%-5d \033[1;33mANOMALY:\033[0m %s\n", index, strings.ToUpper(rec.Kind))

	for i, a := range anomalies {
		switch a.Type {
		case decode.AnomalyInvalidValue:
			fmt.Fprintf(w, "  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
		case decode.AnomalyUnknownMessage, decode.AnomalyUnknownField:
			fmt.Fprintf(w, "  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)
			if num, ok := a.Details["def_number"].(uint8); ok {
				if f, found := fieldByNumber(rec, num); found {
					fmt.Fprintf(w, "    raw %s = %s\n", f.RawValue.Type(), f.RawValue)
				}
			}
		default:
			fmt.Fprintf(w, "  Issue %d: %s\n", i+1, a.Message)
		}
	}
	fmt.Fprintln(w)
}

func fieldByNumber(rec decode.Record, num uint8) (decode.Field, bool) {
	for _, f := range rec.Fields {
		if f.Number == num {
			return f, true
		}
	}
	return decode.Field{}, false
}
