package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// VectorIndex is the sole owner of persisted IndexedVectors.
// Handles are safe for concurrent use.
type VectorIndex interface {
	// Upsert writes the batch. Re-upserting an id overwrites the previous
	// vector and payload. An empty batch fails with domain.ErrInvalidArgument.
	// A provider failure is reported as a domain.ProviderError. Adapters that
	// split large batches into several requests may leave the requests sent
	// before the failure written; re-ingesting the document overwrites them.
	Upsert(ctx context.Context, batch []domain.IndexedVector) error

	// Query returns at most topK results ordered by descending score.
	// topK <= 0 or a dimension mismatch fails with domain.ErrInvalidArgument.
	// An empty index yields an empty slice.
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]domain.RetrievalResult, error)

	// Stats describes the index contents.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
