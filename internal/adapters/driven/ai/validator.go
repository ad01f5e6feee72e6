package ai

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.ProviderValidator = (*ConfigValidator)(nil)

// ConfigValidator validates provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new provider config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbedder(config)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateGeneration validates a generation configuration by pinging the provider.
func (v *ConfigValidator) ValidateGeneration(config domain.GenerationSettings) error {
	svc, err := CreateAndValidateGenerator(config)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateIndex opens the index and reads its stats.
func (v *ConfigValidator) ValidateIndex(ctx context.Context, config domain.IndexSettings) (domain.IndexStats, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	index, err := CreateVectorIndex(ctx, config)
	if err != nil {
		return domain.IndexStats{}, err
	}
	defer index.Close()
	return index.Stats(ctx)
}
