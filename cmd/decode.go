// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Thermoquad/fitscope/pkg/decode"
	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	outputPath   string
	inputFormat  string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <raw-file>",
	Short: "Apply the profile to a raw decode result",
	Long: `Resolve every record of a raw decode result against the profile and write
the decoded document.

The raw decode result is read as CBOR when the file ends in .cbor, as JSON
otherwise. Use "-" to read from stdin.

Output formats:
  json  Tagged JSON document (default)
  cbor  Tagged CBOR document
  text  Human-readable listing

Fields the profile does not describe are kept under unknown_field_<n>.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, cbor, text)")
	decodeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default stdout)")
	decodeCmd.Flags().StringVar(&inputFormat, "input-format", "", "Raw input format (json, cbor; default by extension)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	raw, err := readRawFile(args[0], inputFormat)
	if err != nil {
		return err
	}

	doc := decode.Decode(raw, cat, decode.WithLogger(logger))

	out, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	return writeDocument(out, doc, outputFormat)
}

// readRawFile reads a raw decode result from path, or stdin for "-"
func readRawFile(path, format string) (*fit.RawFile, error) {
	f := fit.DetectFormat(path)
	if format != "" {
		var err error
		if f, err = fit.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open raw input: %w", err)
		}
		defer file.Close()
		r = file
	}

	raw, err := fit.ReadRawFile(r, f)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("input", path).Int("records", len(raw.Records)).Msg("raw decode result loaded")
	return raw, nil
}

// openOutput returns the command's stdout, or a created file when path is set
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// writeDocument writes doc in the named output format
func writeDocument(w io.Writer, doc *decode.Document, format string) error {
	switch strings.ToLower(format) {
	case "text":
		_, err := io.WriteString(w, decode.FormatDocument(doc))
		return err
	case "cbor":
		data, err := fit.Marshal(doc, fit.FormatCBOR)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "json", "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	return fmt.Errorf("unknown output format %q (use json, cbor or text)", format)
}
