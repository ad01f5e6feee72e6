// Package ai provides factory functions for creating AI and vector index adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/pdfchat/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/pdfchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/pdfchat/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/pdfchat/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/pdfchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/pdfchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/vector/pinecone"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the adapters built from settings.
type InitResult struct {
	Embedder      driven.Embedder
	QueryEmbedder driven.Embedder // Embedder behind the query cache; same as Embedder when caching is off.
	Generator     driven.Generator
	VectorIndex   driven.VectorIndex
	Warnings      []string // Non-fatal issues found while building.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	// The query cache closes the embedder it wraps.
	switch {
	case r.QueryEmbedder != nil:
		_ = r.QueryEmbedder.Close()
	case r.Embedder != nil:
		_ = r.Embedder.Close()
	}
	if r.VectorIndex != nil {
		_ = r.VectorIndex.Close()
	}
	if r.Generator != nil {
		_ = r.Generator.Close()
	}
}

// Build creates the embedder, query embedder and vector index from settings.
// The generator is only built when withGenerator is set, since ingestion
// and plain retrieval never need one.
func Build(ctx context.Context, settings domain.Settings, withGenerator bool) (*InitResult, error) {
	result := &InitResult{}

	embedder, err := CreateEmbedder(settings.Embedding)
	if err != nil {
		return nil, err
	}
	result.Embedder = embedder
	result.QueryEmbedder = embedder

	if settings.Embedding.QueryCacheSize > 0 {
		cached, err := cache.New(embedder, settings.Embedding.QueryCacheSize)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("query cache disabled: %v", err))
		} else {
			result.QueryEmbedder = cached
		}
	}

	index, err := CreateVectorIndex(ctx, settings.Index)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorIndex = index

	if withGenerator {
		generator, err := CreateGenerator(settings.Generation)
		if err != nil {
			result.Close()
			return nil, err
		}
		result.Generator = generator
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// CreateAndValidateEmbedder creates an embedder and validates connectivity.
func CreateAndValidateEmbedder(settings domain.EmbeddingSettings) (driven.Embedder, error) {
	svc, err := CreateEmbedder(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%s embedding service unreachable: %w", settings.Provider, err)
	}
	return svc, nil
}

// CreateAndValidateGenerator creates a generator and validates connectivity.
func CreateAndValidateGenerator(settings domain.GenerationSettings) (driven.Generator, error) {
	svc, err := CreateGenerator(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%s generation service unreachable: %w", settings.Provider, err)
	}
	return svc, nil
}

// CreateEmbedder creates the embedder for the configured provider.
func CreateEmbedder(settings domain.EmbeddingSettings) (driven.Embedder, error) {
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s embedding API key", domain.ErrNotConfigured, settings.Provider)
	}

	// The stock Gemini model name means nothing to other providers.
	model := settings.Model
	if settings.Provider != domain.AIProviderGemini && model == domain.DefaultEmbeddingModel {
		model = ""
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		}), nil

	default:
		return nil, domain.InvalidArgument("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateGenerator creates the generator for the configured provider.
func CreateGenerator(settings domain.GenerationSettings) (driven.Generator, error) {
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s generation API key", domain.ErrNotConfigured, settings.Provider)
	}

	model := settings.Model
	if settings.Provider != domain.AIProviderGemini && model == domain.DefaultGenerationModel {
		model = ""
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderAnthropic:
		return anthropic.NewLLMService(anthropic.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: settings.Timeout,
		})

	default:
		return nil, domain.InvalidArgument("unsupported generation provider: %s", settings.Provider)
	}
}

// CreateVectorIndex opens the configured vector index.
// A remote index is contacted to resolve its host and dimension.
func CreateVectorIndex(ctx context.Context, settings domain.IndexSettings) (driven.VectorIndex, error) {
	switch settings.Provider {
	case domain.IndexProviderPinecone:
		if settings.APIKey == "" {
			return nil, fmt.Errorf("%w: %s API key", domain.ErrNotConfigured, settings.Provider)
		}
		return pinecone.NewIndex(ctx, pinecone.Config{
			APIKey:    settings.APIKey,
			IndexName: settings.Name,
			Host:      settings.Host,
			Namespace: settings.Namespace,
			Dimension: settings.Dimension,
			Timeout:   settings.Timeout,
		})

	case domain.IndexProviderSQLite:
		return sqlite.NewIndex(settings.DataDir, indexName(settings), settings.Dimension)

	case domain.IndexProviderMemory:
		logger.Warn("using in-memory vector index; vectors are lost on exit")
		return memory.NewIndex(indexName(settings), settings.Dimension), nil

	default:
		return nil, domain.InvalidArgument("unsupported index provider: %s", settings.Provider)
	}
}

func indexName(settings domain.IndexSettings) string {
	if settings.Name != "" {
		return settings.Name
	}
	return "pdfchat"
}
