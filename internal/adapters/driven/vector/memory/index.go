// Package memory provides an in-process VectorIndex.
//
// It ranks by cosine similarity with a linear scan and is used in tests
// and for local runs without a remote index.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/vector"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu        sync.RWMutex
	name      string
	dimension int
	vectors   map[string]domain.IndexedVector
}

// NewIndex creates an empty index. A dimension of zero is fixed by the first upsert.
func NewIndex(name string, dimension int) *Index {
	if name == "" {
		name = "memory"
	}
	return &Index{
		name:      name,
		dimension: dimension,
		vectors:   make(map[string]domain.IndexedVector),
	}
}

// Upsert stores the batch. Existing ids are overwritten. The batch is
// validated before anything is written.
func (i *Index) Upsert(_ context.Context, batch []domain.IndexedVector) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	dim, err := vector.CheckBatch(batch, i.dimension)
	if err != nil {
		return err
	}
	i.dimension = dim

	for _, v := range batch {
		values := make([]float32, len(v.Values))
		copy(values, v.Values)
		i.vectors[v.ID] = domain.IndexedVector{
			ID:      v.ID,
			Values:  values,
			Payload: vector.ClonePayload(v.Payload),
		}
	}
	return nil
}

// Query returns the topK stored vectors most similar to values.
func (i *Index) Query(
	_ context.Context, values []float32, topK int, includeMetadata bool,
) ([]domain.RetrievalResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if err := vector.CheckQuery(values, topK, i.dimension); err != nil {
		return nil, err
	}

	matches := make([]vector.Match, 0, len(i.vectors))
	for id, v := range i.vectors {
		matches = append(matches, vector.Match{
			ID:      id,
			Score:   vector.Cosine(values, v.Values),
			Payload: v.Payload,
		})
	}
	return vector.Rank(matches, topK, includeMetadata), nil
}

// Stats describes the index contents.
func (i *Index) Stats(_ context.Context) (domain.IndexStats, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return domain.IndexStats{
		Name:         i.name,
		Dimension:    i.dimension,
		TotalVectors: len(i.vectors),
	}, nil
}

// Get returns a copy of the stored vector with the given id.
func (i *Index) Get(id string) (domain.IndexedVector, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.vectors[id]
	if !ok {
		return domain.IndexedVector{}, false
	}
	v.Payload = vector.ClonePayload(v.Payload)
	return v, true
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}
