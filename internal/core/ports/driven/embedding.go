package driven

import "context"

// Embedder converts text into an embedding vector.
//
// Implementations are the single normalisation boundary between the
// provider's response format and the rest of the system: a returned
// vector is always non-empty and numeric. Provider failures are
// reported as *domain.ProviderError.
//
// Implementations may include:
//   - Gemini (text-embedding-004)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	// Empty or whitespace-only text fails with domain.ErrInvalidArgument.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the provider is reachable and the credentials work.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
