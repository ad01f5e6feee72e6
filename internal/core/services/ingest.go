package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService chunks documents, embeds every chunk and stores the
// resulting vectors with a single upsert.
type IngestService struct {
	chunker     driven.Chunker
	embedder    driven.Embedder
	index       driven.VectorIndex
	limiter     driven.RateLimiter
	concurrency int
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithConcurrency sets how many embedding calls may be in flight at once.
// Values below 1 are ignored.
func WithConcurrency(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewIngestService creates a new ingest service.
// The limiter is optional (can be nil).
func NewIngestService(
	chunker driven.Chunker,
	embedder driven.Embedder,
	index driven.VectorIndex,
	limiter driven.RateLimiter,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		limiter:     limiter,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores text as vectors and returns how many were stored.
// If any chunk fails to embed nothing is written.
func (s *IngestService) Ingest(ctx context.Context, text string, metadata map[string]any) (int, error) {
	logger.Section("Ingest")

	if strings.TrimSpace(text) == "" {
		return 0, domain.InvalidArgument("text is empty")
	}

	start := time.Now()
	chunks, err := s.chunker.Chunk(text, metadata)
	if err != nil {
		return 0, fmt.Errorf("chunk text: %w", err)
	}
	if len(chunks) == 0 {
		return 0, domain.Internal("no vectors generated")
	}
	logger.Debug("Split %d characters into %d chunks", len(text), len(chunks))

	source := sourceName(metadata)
	token := documentToken(text)

	vectors, err := s.embedChunks(ctx, chunks, source, token)
	if err != nil {
		return 0, err
	}
	if err := checkDimensions(vectors); err != nil {
		return 0, err
	}

	if err := s.index.Upsert(ctx, vectors); err != nil {
		return 0, fmt.Errorf("upsert %d vectors: %w", len(vectors), err)
	}

	logger.Debug("Stored %d vectors for %q in %v", len(vectors), source, time.Since(start))
	return len(vectors), nil
}

// embedChunks embeds every chunk, keeping document order in the result.
func (s *IngestService) embedChunks(
	ctx context.Context, chunks []domain.Chunk, source, token string,
) ([]domain.IndexedVector, error) {
	vectors := make([]domain.IndexedVector, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return domain.NewProviderError(domain.ProviderEmbedding, "embedContent", err)
			}
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return domain.NewProviderError(domain.ProviderEmbedding, "rate limit wait", err)
				}
			}

			values, err := s.embedder.Embed(gctx, chunk.Text)
			if err != nil {
				s.recordBackoff(err)
				return fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
			}
			logger.Debug("Embedded chunk %d (%d chars, %d dims)", chunk.Index, len(chunk.Text), len(values))

			vectors[i] = domain.IndexedVector{
				ID:      vectorID(source, token, chunk.Index),
				Values:  values,
				Payload: chunkPayload(chunk),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancelled ctx can end the loop before any goroutine sees it.
	if err := ctx.Err(); err != nil {
		return nil, domain.NewProviderError(domain.ProviderEmbedding, "embedContent", err)
	}
	return vectors, nil
}

// recordBackoff forwards a provider rate-limit hint to the limiter.
func (s *IngestService) recordBackoff(err error) {
	d, ok := domain.RetryAfterHint(err)
	if !ok {
		return
	}
	if r, ok := s.limiter.(driven.RateLimitRecorder); ok {
		logger.Warn("Embedding provider rate limited, backing off for %v", d)
		r.RecordRateLimitError(d)
	}
}

// chunkPayload merges the chunk metadata with its index, length and text.
func chunkPayload(chunk domain.Chunk) map[string]any {
	payload := make(map[string]any, len(chunk.Metadata)+3)
	for k, v := range chunk.Metadata {
		payload[k] = v
	}
	payload[domain.PayloadChunkIndex] = chunk.Index
	payload[domain.PayloadChunkLength] = utf8.RuneCountInString(chunk.Text)
	payload[domain.PayloadText] = chunk.Text
	return payload
}

// checkDimensions verifies every vector has the same length.
func checkDimensions(vectors []domain.IndexedVector) error {
	want := len(vectors[0].Values)
	for _, v := range vectors[1:] {
		if len(v.Values) != want {
			return domain.NewProviderError(domain.ProviderEmbedding, "embedContent",
				fmt.Errorf("inconsistent dimensions: %d and %d", want, len(v.Values)))
		}
	}
	return nil
}
