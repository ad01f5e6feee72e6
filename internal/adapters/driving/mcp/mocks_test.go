package mcp

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievalResult
	err     error
	query   string
	topK    int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	m.query, m.topK = query, topK
	return m.results, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
}

func (m *mockAnswerService) Answer(_ context.Context, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	stored   int
	err      error
	text     string
	metadata map[string]any
}

func (m *mockIngestService) Ingest(_ context.Context, text string, metadata map[string]any) (int, error) {
	m.text, m.metadata = text, metadata
	return m.stored, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats domain.IndexStats
	err   error
}

func (m *mockIndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}
