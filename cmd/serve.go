// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Thermoquad/fitscope/pkg/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the decoder over HTTP",
	Long: `Compile the profile once and serve it over HTTP.

Endpoints:
  GET  /healthz                      Liveness
  POST /v1/decode                    Decode a raw decode result (JSON or CBOR)
  GET  /v1/profile                   Profile summary
  GET  /v1/profile/messages/:name    One message's field slots

The response format follows the Accept header (application/json or
application/cbor).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := cat.Summary()
	logger.Info().
		Str("addr", serveAddr).
		Int("messages", summary.Messages).
		Int("field_types", summary.FieldTypes).
		Msg("serving decoder")

	return api.NewServer(cat, logger).Start(ctx, serveAddr)
}
