package driven

import "github.com/custodia-labs/pdfchat/internal/core/domain"

// Chunker splits document text into ordered, overlapping chunks.
type Chunker interface {
	// Chunk splits text and attaches metadata to every chunk.
	// Chunks are returned in document order with Index 0, 1, 2, ...
	Chunk(text string, metadata map[string]any) ([]domain.Chunk, error)
}
