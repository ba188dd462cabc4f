// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/fitscope/pkg/decode"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	wsURL         string
	wsUsername    string
	noSSLVerify   bool
	serialPort    string
	baudRate      int
	statsInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Decode a live feed of raw records",
	Long: `Connect to a live feed of raw records and decode them as they arrive.

Two feeds are supported:
  --url   WebSocket; text messages carry JSON records, binary messages CBOR
  --port  Serial port; one JSON record per line

Anomalies are printed as they are detected and statistics are printed at a
fixed interval. Use --tui for an interactive viewer.

The WebSocket password is read from FITSCOPE_PASSWORD or prompted for.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&wsURL, "url", "", "WebSocket URL (ws:// or wss://)")
	watchCmd.Flags().StringVarP(&wsUsername, "username", "u", "", "WebSocket username")
	watchCmd.Flags().BoolVar(&noSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification")
	watchCmd.Flags().StringVarP(&serialPort, "port", "p", "", "Serial port")
	watchCmd.Flags().IntVarP(&baudRate, "baud", "b", 115200, "Serial baud rate")
	watchCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all records (not just anomalies)")
	watchCmd.Flags().BoolVar(&useTUI, "tui", false, "Use terminal UI")
	watchCmd.Flags().DurationVar(&statsInterval, "stats-interval", 10*time.Second, "Statistics print interval (0 disables)")
	watchCmd.MarkFlagsMutuallyExclusive("url", "port")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	src, label, err := OpenSource(connectionOptions{
		URL:         wsURL,
		Username:    wsUsername,
		NoSSLVerify: noSSLVerify,
		Port:        serialPort,
		BaudRate:    baudRate,
	})
	if err != nil {
		return err
	}
	defer src.Close()
	logger.Info().Str("source", label).Msg("feed connected")

	resolver := decode.NewResolver(cat, decode.WithLogger(logger))

	if useTUI {
		return runTUI(label, showAll, func(send func(tea.Msg)) {
			send(feedDoneMsg{err: pump(src, resolver, func(m recordMsg) { send(m) })})
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fitscope - Watch\n")
	fmt.Fprintf(out, "Source: %s\n", label)
	fmt.Fprintf(out, "Press Ctrl+C to stop\n\n")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	records := make(chan recordMsg, 64)
	done := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		done <- pump(src, resolver, forward(records, stop))
	}()

	var tick <-chan time.Time
	if statsInterval > 0 {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	stats := decode.NewStatistics()
	index := 0
	for {
		select {
		case <-sigCh:
			fmt.Fprintf(out, "\n\nShutting down...\n")
			fmt.Fprint(out, stats.String())
			return nil

		case m := <-records:
			printRecordMsg(out, index, m, stats)
			index++

		case <-tick:
			stats.CalculateRates()
			fmt.Fprintln(out)
			fmt.Fprint(out, stats.String())
			fmt.Fprintln(out)

		case err := <-done:
			// drain what the reader queued before it stopped
			for {
				select {
				case m := <-records:
					printRecordMsg(out, index, m, stats)
					index++
					continue
				default:
				}
				break
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, stats.String())
			return err
		}
	}
}

// pump reads src until it closes, resolving and validating each record. A
// malformed record is reported as a decode error and reading continues.
// Returns nil when the feed closed normally.
func pump(src RecordSource, resolver *decode.Resolver, emit func(recordMsg)) error {
	for {
		raw, err := src.Next()
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) {
				return nil
			}
			if errors.Is(err, ErrMalformedRecord) {
				logger.Debug().Err(err).Msg("skipping malformed record")
				emit(recordMsg{decodeErr: err})
				continue
			}
			return fmt.Errorf("feed read failed: %w", err)
		}
		rec := resolver.ResolveRecord(raw)
		emit(recordMsg{record: &rec, anomalies: decode.ValidateRecord(rec)})
	}
}

// forward returns an emit func that queues on records until stop is closed,
// then drops
func forward(records chan<- recordMsg, stop <-chan struct{}) func(recordMsg) {
	return func(m recordMsg) {
		select {
		case records <- m:
		case <-stop:
		}
	}
}

func printRecordMsg(w io.Writer, index int, m recordMsg, stats *decode.Statistics) {
	if m.decodeErr != nil {
		stats.Update(nil, m.decodeErr, nil)
		fmt.Fprintf(w, "#%-5d \033[1;31mDECODE ERROR:\033[0m %v\n\n", index, m.decodeErr)
		return
	}
	stats.Update(m.record, nil, m.anomalies)
	if len(m.anomalies) > 0 {
		printAnomalies(w, index, *m.record, m.anomalies)
	} else if showAll {
		fmt.Fprintf(w, "#%-5d %s", index, decode.FormatRecord(*m.record))
	}
}
