// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// passwordEnv holds the WebSocket password so it never appears in shell history
const passwordEnv = "FITSCOPE_PASSWORD"

var (
	// ErrConnectionClosed is returned when reading from a closed connection
	ErrConnectionClosed = errors.New("connection closed")
	// ErrMalformedRecord wraps a feed message that is not a raw record. The
	// feed itself is still usable.
	ErrMalformedRecord = errors.New("malformed record")
)

// RecordSource yields raw records from a live feed, one at a time
type RecordSource interface {
	Next() (fit.RawRecord, error)
	Close() error
}

// WebSocketSource reads one raw record per WebSocket message. Text messages
// carry JSON, binary messages carry CBOR.
type WebSocketSource struct {
	conn   *websocket.Conn
	closed bool // Track if connection has failed/closed
}

// Next blocks until the next record arrives
func (w *WebSocketSource) Next() (fit.RawRecord, error) {
	// Return immediately if connection is known to be closed
	if w.closed {
		return fit.RawRecord{}, ErrConnectionClosed
	}

	messageType, data, err := w.conn.ReadMessage()
	if err != nil {
		// Mark connection as closed to prevent further read attempts
		w.closed = true
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return fit.RawRecord{}, ErrConnectionClosed
		}
		return fit.RawRecord{}, err
	}

	format := fit.FormatJSON
	if messageType == websocket.BinaryMessage {
		format = fit.FormatCBOR
	}
	var rec fit.RawRecord
	if err := fit.Unmarshal(data, &rec, format); err != nil {
		return fit.RawRecord{}, fmt.Errorf("%w (%s): %v", ErrMalformedRecord, format, err)
	}
	return rec, nil
}

// Close closes the WebSocket
func (w *WebSocketSource) Close() error {
	return w.conn.Close()
}

// LineSource reads one JSON raw record per line, as written by data loggers
// over a serial console
type LineSource struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
}

// NewLineSource wraps rc
func NewLineSource(rc io.ReadCloser) *LineSource {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &LineSource{rc: rc, scanner: scanner}
}

// Next blocks until the next non-empty line arrives
func (l *LineSource) Next() (fit.RawRecord, error) {
	for l.scanner.Scan() {
		line := strings.TrimSpace(l.scanner.Text())
		if line == "" {
			continue
		}
		var rec fit.RawRecord
		if err := fit.Unmarshal([]byte(line), &rec, fit.FormatJSON); err != nil {
			return fit.RawRecord{}, fmt.Errorf("%w (json): %v", ErrMalformedRecord, err)
		}
		return rec, nil
	}
	if err := l.scanner.Err(); err != nil {
		return fit.RawRecord{}, err
	}
	return fit.RawRecord{}, ErrConnectionClosed
}

// Close closes the underlying reader
func (l *LineSource) Close() error {
	return l.rc.Close()
}

// OpenSerialSource opens a serial port carrying JSON lines
func OpenSerialSource(portName string, baudRate int) (RecordSource, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return NewLineSource(port), nil
}

// OpenWebSocketSource opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketSource(wsURL, username, password string, skipSSLVerify bool) (RecordSource, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	// Configure TLS for wss://
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &WebSocketSource{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// connectionOptions selects a live feed
type connectionOptions struct {
	URL           string
	Username      string
	NoSSLVerify   bool
	Port          string
	BaudRate      int
	passwordInput func() (string, error)
}

// OpenSource opens either a WebSocket or serial feed
func OpenSource(opts connectionOptions) (RecordSource, string, error) {
	if opts.URL != "" {
		password := ""
		if opts.Username != "" {
			getPassword := opts.passwordInput
			if getPassword == nil {
				getPassword = GetPassword
			}
			var err error
			password, err = getPassword()
			if err != nil {
				return nil, "", err
			}
		}

		src, err := OpenWebSocketSource(opts.URL, opts.Username, password, opts.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return src, fmt.Sprintf("WebSocket: %s", opts.URL), nil
	}

	if opts.Port != "" {
		src, err := OpenSerialSource(opts.Port, opts.BaudRate)
		if err != nil {
			return nil, "", err
		}
		return src, fmt.Sprintf("Serial: %s @ %d baud", opts.Port, opts.BaudRate), nil
	}

	return nil, "", fmt.Errorf("either --url or --port must be specified")
}
