// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package api serves profile decoding over HTTP.
package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/Thermoquad/fitscope/pkg/decode"
	"github.com/Thermoquad/fitscope/pkg/fit"
	"github.com/Thermoquad/fitscope/pkg/profile"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/rs/zerolog"
)

// MIMEApplicationCBOR is the content type of CBOR request and response bodies
const MIMEApplicationCBOR = "application/cbor"

// DefaultMaxBodySize bounds decode request bodies
const DefaultMaxBodySize = 64 << 20

// Server decodes raw records against one shared catalog
type Server struct {
	resolver    *decode.Resolver
	log         zerolog.Logger
	maxBodySize int64
}

// NewServer creates a server over cat
func NewServer(cat *profile.Catalog, log zerolog.Logger) *Server {
	return &Server{
		resolver:    decode.NewResolver(cat, decode.WithLogger(log)),
		log:         log,
		maxBodySize: DefaultMaxBodySize,
	}
}

// DecodeResponse is the body returned by POST /v1/decode
type DecodeResponse struct {
	ID        string                   `json:"id" cbor:"id"`
	Document  *decode.Document         `json:"document" cbor:"document"`
	Anomalies []decode.ValidationError `json:"anomalies" cbor:"anomalies"`
}

// ResponseError is the error body of every failed request
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Register adds the routes to e
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/decode", s.handleDecode)
	e.GET("/v1/profile", s.handleProfile)
	e.GET("/v1/profile/messages/:name", s.handleMessage)
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)

	s.log.Info().Str("address", addr).Msg("starting server")
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = 10 * time.Second
			return nil
		},
	}
	return sc.Start(ctx, e)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleDecode(c *echo.Context) error {
	req := c.Request()
	inFormat := formatFor(req.Header.Get(echo.HeaderContentType))

	body, err := io.ReadAll(io.LimitReader(req.Body, s.maxBodySize+1))
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("failed to read body: %v", err))
	}
	if int64(len(body)) > s.maxBodySize {
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", "request body too large")
	}

	var raw fit.RawFile
	if err := fit.Unmarshal(body, &raw, inFormat); err != nil {
		return writeBadRequest(c, fmt.Sprintf("invalid raw decode result: %v", err))
	}

	doc := s.resolver.Decode(&raw)
	resp := DecodeResponse{
		ID:        "doc_" + uuid.NewString(),
		Document:  doc,
		Anomalies: decode.ValidateDocument(doc),
	}
	s.log.Debug().
		Str("id", resp.ID).
		Int("records", len(doc.Records)).
		Int("anomalies", len(resp.Anomalies)).
		Msg("decoded document")

	if formatFor(req.Header.Get(echo.HeaderAccept)) == fit.FormatCBOR {
		data, err := fit.Marshal(resp, fit.FormatCBOR)
		if err != nil {
			return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
		}
		return c.Blob(http.StatusOK, MIMEApplicationCBOR, data)
	}
	data, err := fit.Marshal(resp, fit.FormatJSON)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (s *Server) handleProfile(c *echo.Context) error {
	cat := s.resolver.Catalog()
	if cat == nil {
		return writeError(c, http.StatusServiceUnavailable, "server_error", "no profile loaded")
	}
	names := make([]string, 0, cat.Summary().Messages)
	for _, m := range cat.Messages() {
		names = append(names, m.Name())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"summary":  cat.Summary(),
		"messages": names,
	})
}

func (s *Server) handleMessage(c *echo.Context) error {
	cat := s.resolver.Catalog()
	if cat == nil {
		return writeError(c, http.StatusServiceUnavailable, "server_error", "no profile loaded")
	}
	name := c.Param("name")
	msg, ok := cat.Message(name)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("message %q not in profile", name))
	}
	data, err := fit.Marshal(msg, fit.FormatJSON)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// formatFor maps a Content-Type or Accept header to an interchange format
func formatFor(header string) fit.Format {
	mediaType, _, err := mime.ParseMediaType(header)
	if err == nil && mediaType == MIMEApplicationCBOR {
		return fit.FormatCBOR
	}
	return fit.FormatJSON
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}
