package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// RetrievalService turns a query into ranked context snippets.
type RetrievalService interface {
	// Retrieve returns at most topK snippets ordered by descending score.
	// topK == 0 selects the configured default; a negative topK or an empty
	// query fails with domain.ErrInvalidArgument before any provider call.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error)
}

// IndexService exposes read-only information about the vector index.
type IndexService interface {
	// Stats describes the index contents.
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// AnswerService answers questions over retrieved context.
type AnswerService interface {
	// Answer retrieves context for question and forwards it to the generator.
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
