// Package mcp provides an MCP (Model Context Protocol) server adapter for pdfchat.
// It lets AI assistants retrieve context from the ingested PDFs and ask questions over it.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
