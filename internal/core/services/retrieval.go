package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure RetrievalService implements the interfaces.
var (
	_ driving.RetrievalService = (*RetrievalService)(nil)
	_ driving.IndexService     = (*RetrievalService)(nil)
)

// RetrievalService embeds queries and looks up the nearest stored chunks.
type RetrievalService struct {
	embedder    driven.Embedder
	index       driven.VectorIndex
	defaultTopK int
}

// NewRetrievalService creates a new retrieval service.
// A non-positive defaultTopK uses domain.DefaultTopK.
func NewRetrievalService(embedder driven.Embedder, index driven.VectorIndex, defaultTopK int) *RetrievalService {
	if defaultTopK <= 0 {
		defaultTopK = domain.DefaultTopK
	}
	return &RetrievalService{
		embedder:    embedder,
		index:       index,
		defaultTopK: defaultTopK,
	}
}

// Retrieve returns the topK chunks most similar to query, as ranked by the
// index. Results are not re-ranked or deduplicated.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieve")
	logger.Debug("Query: %q, topK: %d", query, topK)

	if strings.TrimSpace(query) == "" {
		return nil, domain.InvalidArgument("query is empty")
	}
	if topK < 0 {
		return nil, domain.InvalidArgument("topK must be positive, got %d", topK)
	}
	if topK == 0 {
		topK = s.defaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.index.Query(ctx, vector, topK, true)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}

	logger.Debug("Retrieved %d results", len(results))
	for i, r := range results {
		logger.Debug("  %d. %s (score %.4f)", i+1, r.ID, r.Score)
	}
	return results, nil
}

// Stats describes the index contents.
func (s *RetrievalService) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("index stats: %w", err)
	}
	return stats, nil
}
