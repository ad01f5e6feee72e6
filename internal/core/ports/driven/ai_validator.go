package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// ProviderValidator checks provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying services.
type ProviderValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	ValidateEmbedding(config domain.EmbeddingSettings) error

	// ValidateGeneration validates a generation configuration by pinging the provider.
	ValidateGeneration(config domain.GenerationSettings) error

	// ValidateIndex validates an index configuration by opening it and reading its stats.
	ValidateIndex(ctx context.Context, config domain.IndexSettings) (domain.IndexStats, error)
}
