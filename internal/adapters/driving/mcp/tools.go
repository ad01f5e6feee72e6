package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question or text to find relevant PDF passages for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput is a single retrieved passage.
type PassageOutput struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested PDFs"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Response string          `json:"response"`
	Sources  []PassageOutput `json:"sources,omitempty"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	Text   string `json:"text" jsonschema:"the document text to chunk, embed and store"`
	Source string `json:"source,omitempty" jsonschema:"a name recorded as the source of every stored chunk"`
}

// IngestTextOutput is the output schema for the ingest_text tool.
type IngestTextOutput struct {
	Chunks int `json:"chunks"`
}

// registerTools registers the tool handlers backed by the configured ports.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages of the ingested PDFs most similar to a query",
	}, s.handleRetrieve)

	if s.ports.Answers != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using passages retrieved from the ingested PDFs",
		}, s.handleAsk)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Chunk, embed and store a block of text so it can be retrieved later",
		}, s.handleIngestText)
	}
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: toPassages(results),
		Count:   len(results),
	}
	return nil, output, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answers.Answer(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Response: answer.Response, Sources: toPassages(answer.Sources)}, nil
}

func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	var metadata map[string]any
	if input.Source != "" {
		metadata = map[string]any{domain.MetadataSource: input.Source}
	}

	n, err := s.ports.Ingest.Ingest(ctx, input.Text, metadata)
	if err != nil {
		return nil, IngestTextOutput{}, err
	}
	return nil, IngestTextOutput{Chunks: n}, nil
}

func toPassages(results []domain.RetrievalResult) []PassageOutput {
	passages := make([]PassageOutput, len(results))
	for i := range results {
		passages[i] = PassageOutput{
			ID:    results[i].ID,
			Score: results[i].Score,
			Text:  results[i].Text,
		}
		if name, ok := results[i].Metadata[domain.MetadataSource].(string); ok {
			passages[i].Source = name
		}
	}
	return passages
}
