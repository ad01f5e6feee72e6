package mcp

import (
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Retrieval ranks context snippets for a query.
	Retrieval driving.RetrievalService

	// Answers generates answers. Without it the ask tool is not offered.
	Answers driving.AnswerService

	// Ingest stores new text. Without it the ingest_text tool is not offered.
	Ingest driving.IngestService

	// Index describes the vector index for the stats resource.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
