package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// mockEmbedder returns a vector derived from the text, or the error
// configured for the n-th call (1-based).
type mockEmbedder struct {
	mu     sync.Mutex
	calls  []string
	failOn int
	err    error
	dims   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if m.failOn > 0 && len(m.calls) == m.failOn {
		return nil, m.err
	}
	dims := m.dims
	if dims == 0 {
		dims = 3
	}
	v := make([]float32, dims)
	v[0] = float32(len(text))
	return v, nil
}

func (m *mockEmbedder) ModelName() string { return "mock-embedding" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// spyIndex records upserts and serves canned query results.
type spyIndex struct {
	upserts   [][]domain.IndexedVector
	upsertErr error
	queries   int
	lastTopK  int
	lastMeta  bool
	results   []domain.RetrievalResult
	queryErr  error
	stats     domain.IndexStats
}

func (s *spyIndex) Upsert(_ context.Context, batch []domain.IndexedVector) error {
	if len(batch) == 0 {
		return domain.InvalidArgument("empty batch")
	}
	s.upserts = append(s.upserts, batch)
	return s.upsertErr
}

func (s *spyIndex) Query(_ context.Context, _ []float32, topK int, includeMetadata bool) ([]domain.RetrievalResult, error) {
	s.queries++
	s.lastTopK = topK
	s.lastMeta = includeMetadata
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if len(s.results) > topK {
		return s.results[:topK], nil
	}
	return s.results, nil
}

func (s *spyIndex) Stats(_ context.Context) (domain.IndexStats, error) {
	return s.stats, nil
}

func (s *spyIndex) Close() error { return nil }

// mockLimiter counts waits and records backoff hints.
type mockLimiter struct {
	mu      sync.Mutex
	waits   int
	backoff time.Duration
	err     error
}

func (m *mockLimiter) Wait(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits++
	if m.err != nil {
		return m.err
	}
	return ctx.Err()
}

func (m *mockLimiter) RecordRateLimitError(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backoff = d
}

// mockGenerator echoes a canned response and records the prompt.
type mockGenerator struct {
	response string
	err      error
	prompt   string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func (m *mockGenerator) ModelName() string { return "mock-llm" }

func (m *mockGenerator) Ping(_ context.Context) error { return nil }

func (m *mockGenerator) Close() error { return nil }

// mockExtractor returns fixed text.
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	return m.text, m.err
}

func (m *mockExtractor) SupportedMIMETypes() []string { return []string{"application/pdf"} }

// mockIngester records the metadata it was called with.
type mockIngester struct {
	text     string
	metadata map[string]any
	stored   int
	err      error
}

func (m *mockIngester) Ingest(_ context.Context, text string, metadata map[string]any) (int, error) {
	m.text = text
	m.metadata = metadata
	return m.stored, m.err
}

// fixedChunker returns the configured chunks.
type fixedChunker struct {
	chunks []domain.Chunk
}

func (f *fixedChunker) Chunk(_ string, _ map[string]any) ([]domain.Chunk, error) {
	return f.chunks, nil
}

var errEmbed = errors.New("status 503")
