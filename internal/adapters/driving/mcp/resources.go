package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the URI scheme for pdfchat resources.
const uriScheme = "pdfchat://"

// indexStatsURI addresses the vector index statistics.
const indexStatsURI = uriScheme + "index/stats"

// registerResources registers the resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         indexStatsURI,
		Name:        "index-stats",
		Description: "Name, dimension and vector counts of the vector index",
		MIMEType:    "application/json",
	}, s.handleIndexStatsResource)
}

// handleIndexStatsResource returns the index statistics as JSON.
func (s *Server) handleIndexStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index stats: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index stats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
