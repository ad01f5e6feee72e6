package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		wantErr  error
	}{
		{
			name:     "missing key is not configured",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderGemini},
			wantErr:  domain.ErrNotConfigured,
		},
		{
			name:     "gemini provider creates service",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "test-key"},
		},
		{
			name: "openai provider creates service",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name:     "ollama needs no key",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOllama},
		},
		{
			name:     "anthropic cannot embed",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "test-key"},
			wantErr:  domain.ErrInvalidArgument,
		},
		{
			name:     "unknown provider is invalid",
			settings: domain.EmbeddingSettings{Provider: "unknown", APIKey: "test-key"},
			wantErr:  domain.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbedder(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbedder_OpenAIIgnoresGeminiDefaultModel(t *testing.T) {
	svc, err := CreateEmbedder(domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "test-key",
		Model:    domain.DefaultEmbeddingModel,
	})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", svc.ModelName())

	svc, err = CreateEmbedder(domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    domain.DefaultEmbeddingModel,
	})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestCreateGenerator(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.GenerationSettings
		wantErr  error
	}{
		{
			name:     "missing key is not configured",
			settings: domain.GenerationSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrNotConfigured,
		},
		{
			name:     "gemini provider creates service",
			settings: domain.GenerationSettings{Provider: domain.AIProviderGemini, APIKey: "test-key"},
		},
		{
			name:     "openai provider creates service",
			settings: domain.GenerationSettings{Provider: domain.AIProviderOpenAI, APIKey: "test-key"},
		},
		{
			name:     "anthropic provider creates service",
			settings: domain.GenerationSettings{Provider: domain.AIProviderAnthropic, APIKey: "test-key"},
		},
		{
			name:     "ollama needs no key",
			settings: domain.GenerationSettings{Provider: domain.AIProviderOllama},
		},
		{
			name:     "unknown provider is invalid",
			settings: domain.GenerationSettings{Provider: "cohere", APIKey: "test-key"},
			wantErr:  domain.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateGenerator(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateVectorIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		index, err := CreateVectorIndex(ctx, domain.IndexSettings{Provider: domain.IndexProviderMemory, Dimension: 3})
		require.NoError(t, err)
		defer index.Close()

		stats, err := index.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pdfchat", stats.Name)
		assert.Equal(t, 3, stats.Dimension)
	})

	t.Run("sqlite", func(t *testing.T) {
		index, err := CreateVectorIndex(ctx, domain.IndexSettings{
			Provider: domain.IndexProviderSQLite,
			Name:     "docs",
			DataDir:  t.TempDir(),
		})
		require.NoError(t, err)
		defer index.Close()

		stats, err := index.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalVectors)
	})

	t.Run("pinecone without key", func(t *testing.T) {
		_, err := CreateVectorIndex(ctx, domain.IndexSettings{Provider: domain.IndexProviderPinecone, Name: "docs"})
		assert.ErrorIs(t, err, domain.ErrNotConfigured)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := CreateVectorIndex(ctx, domain.IndexSettings{Provider: "qdrant"})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestBuild(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Embedding.APIKey = "test-key"
	settings.Index = domain.IndexSettings{Provider: domain.IndexProviderMemory}

	t.Run("wraps query embedder in cache", func(t *testing.T) {
		result, err := Build(context.Background(), settings, false)
		require.NoError(t, err)
		defer result.Close()

		assert.NotNil(t, result.Embedder)
		assert.NotNil(t, result.VectorIndex)
		assert.Nil(t, result.Generator)
		_, cached := result.QueryEmbedder.(*cache.Embedder)
		assert.True(t, cached)
	})

	t.Run("cache disabled", func(t *testing.T) {
		s := settings
		s.Embedding.QueryCacheSize = 0
		result, err := Build(context.Background(), s, false)
		require.NoError(t, err)
		defer result.Close()

		assert.Same(t, result.Embedder, result.QueryEmbedder)
	})

	t.Run("generator requested without key", func(t *testing.T) {
		_, err := Build(context.Background(), settings, true)
		assert.ErrorIs(t, err, domain.ErrNotConfigured)
	})

	t.Run("generator built when requested", func(t *testing.T) {
		s := settings
		s.Generation.APIKey = "test-key"
		result, err := Build(context.Background(), s, true)
		require.NoError(t, err)
		defer result.Close()

		assert.NotNil(t, result.Generator)
	})
}

func TestCreateAndValidateEmbedder(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1beta/models/text-embedding-004", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		svc, err := CreateAndValidateEmbedder(domain.EmbeddingSettings{
			Provider: domain.AIProviderGemini,
			APIKey:   "test-key",
			BaseURL:  server.URL,
		})
		require.NoError(t, err)
		assert.NoError(t, svc.Close())
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := CreateAndValidateEmbedder(domain.EmbeddingSettings{
			Provider: domain.AIProviderGemini,
			APIKey:   "bad-key",
			BaseURL:  server.URL,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gemini embedding service unreachable")
	})
}
