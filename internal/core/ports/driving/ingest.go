package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// IngestService turns document text into stored, searchable vectors.
type IngestService interface {
	// Ingest chunks, embeds and stores text, returning the number of vectors stored.
	// Either every chunk is stored or none is.
	Ingest(ctx context.Context, text string, metadata map[string]any) (int, error)
}

// UploadService ingests an uploaded file.
type UploadService interface {
	// Upload extracts the text of a file and ingests it with source metadata.
	Upload(ctx context.Context, filename string, data []byte) (*domain.UploadResult, error)
}
