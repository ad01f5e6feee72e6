package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a remote service for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is the OpenAI API (or a compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama server.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderAnthropic is the Anthropic Messages API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderOllama, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if the provider can embed text.
func (p AIProvider) SupportsEmbedding() bool {
	return p.IsValid() && p != AIProviderAnthropic
}

// RequiresAPIKey returns true if the provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// IsLocal returns true if the provider runs on the local machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexProvider identifies a vector index backend.
type IndexProvider string

// Available index providers.
const (
	// IndexProviderPinecone is a named remote Pinecone index.
	IndexProviderPinecone IndexProvider = "pinecone"

	// IndexProviderSQLite is a local single-file index.
	IndexProviderSQLite IndexProvider = "sqlite"

	// IndexProviderMemory is a process-local index, lost on exit.
	IndexProviderMemory IndexProvider = "memory"
)

// IsValid returns true if the index provider is recognised.
func (p IndexProvider) IsValid() bool {
	switch p {
	case IndexProviderPinecone, IndexProviderSQLite, IndexProviderMemory:
		return true
	default:
		return false
	}
}

// IsRemote returns true if the index lives behind a network API.
func (p IndexProvider) IsRemote() bool {
	return p == IndexProviderPinecone
}

// String returns the string representation.
func (p IndexProvider) String() string {
	return string(p)
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model identifier.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey authenticates against the provider.
	APIKey string

	// Timeout bounds a single embedding call.
	Timeout time.Duration

	// QueryCacheSize is the number of query embeddings kept in memory (0 disables).
	QueryCacheSize int
}

// IsConfigured returns true if the provider is usable for embeddings.
func (s EmbeddingSettings) IsConfigured() bool {
	return s.Provider.SupportsEmbedding() && (!s.Provider.RequiresAPIKey() || s.APIKey != "")
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	// Provider is the index backend.
	Provider IndexProvider

	// Name is the target index name.
	Name string

	// Host is the data-plane host; resolved from Name when empty.
	Host string

	// APIKey authenticates against a remote index.
	APIKey string

	// Namespace partitions vectors inside a remote index.
	Namespace string

	// Dimension is the expected vector length (0 means discover or adopt on first write).
	Dimension int

	// DataDir holds local index files.
	DataDir string

	// Timeout bounds a single index call.
	Timeout time.Duration
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by adjacent chunks.
	Overlap int
}

// RateLimitSettings throttles embedding calls.
type RateLimitSettings struct {
	// Interval is the minimum spacing between successive calls.
	Interval time.Duration

	// Burst is the number of calls allowed back-to-back.
	Burst int

	// Concurrency bounds in-flight embedding calls during one ingest.
	Concurrency int
}

// GenerationSettings configures the answer generator.
type GenerationSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model identifier.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey authenticates against the provider.
	APIKey string

	// Timeout bounds a single generation call.
	Timeout time.Duration
}

// IsConfigured returns true if the provider is usable for generation.
func (s GenerationSettings) IsConfigured() bool {
	return s.Provider.IsValid() && (!s.Provider.RequiresAPIKey() || s.APIKey != "")
}

// ServerSettings configures the HTTP route layer.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// MaxUploadBytes caps the size of an uploaded file.
	MaxUploadBytes int64
}

// RetrievalSettings configures query-time behaviour.
type RetrievalSettings struct {
	// TopK is the default number of snippets returned.
	TopK int
}

// Settings is the complete configuration surface consumed by the core.
type Settings struct {
	Embedding  EmbeddingSettings
	Index      IndexSettings
	Chunking   ChunkingSettings
	RateLimit  RateLimitSettings
	Generation GenerationSettings
	Retrieval  RetrievalSettings
	Server     ServerSettings
}

// Defaults used when a setting is left empty.
const (
	DefaultEmbeddingModel  = "text-embedding-004"
	DefaultGenerationModel = "gemini-2.5-flash"
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultCallInterval    = 100 * time.Millisecond
	DefaultTopK            = 3
	DefaultMaxUploadBytes  = 10 << 20
	DefaultAddr            = ":3000"
	DefaultCallTimeout     = 60 * time.Second
	DefaultQueryCacheSize  = 256
)

// DefaultSettings returns settings matching the stock deployment:
// Gemini embeddings and generation with a Pinecone index.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:       AIProviderGemini,
			Model:          DefaultEmbeddingModel,
			Timeout:        DefaultCallTimeout,
			QueryCacheSize: DefaultQueryCacheSize,
		},
		Index: IndexSettings{
			Provider: IndexProviderPinecone,
			Timeout:  DefaultCallTimeout,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		RateLimit: RateLimitSettings{
			Interval:    DefaultCallInterval,
			Burst:       1,
			Concurrency: 1,
		},
		Generation: GenerationSettings{
			Provider: AIProviderGemini,
			Model:    DefaultGenerationModel,
			Timeout:  2 * DefaultCallTimeout,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
		Server: ServerSettings{
			Addr:           DefaultAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// Validate checks the settings for internal consistency.
// Missing credentials are reported as ErrNotConfigured.
func (s Settings) Validate() error {
	if !s.Embedding.Provider.SupportsEmbedding() {
		return InvalidArgument("unknown embedding provider %q", s.Embedding.Provider)
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		return fmt.Errorf("%w: %s embedding API key", ErrNotConfigured, s.Embedding.Provider)
	}
	if !s.Index.Provider.IsValid() {
		return InvalidArgument("unknown index provider %q", s.Index.Provider)
	}
	if s.Index.Provider.IsRemote() {
		if s.Index.APIKey == "" {
			return fmt.Errorf("%w: %s API key", ErrNotConfigured, s.Index.Provider)
		}
		if s.Index.Name == "" && s.Index.Host == "" {
			return fmt.Errorf("%w: %s index name", ErrNotConfigured, s.Index.Provider)
		}
	}
	if s.Index.Dimension < 0 {
		return InvalidArgument("index dimension must not be negative, got %d", s.Index.Dimension)
	}
	if s.Chunking.Size <= 0 {
		return InvalidArgument("chunk size must be positive, got %d", s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return InvalidArgument("chunk overlap must be in [0, %d), got %d", s.Chunking.Size, s.Chunking.Overlap)
	}
	if s.RateLimit.Interval < 0 {
		return InvalidArgument("rate limit interval must not be negative")
	}
	if s.Retrieval.TopK <= 0 {
		return InvalidArgument("topK must be positive, got %d", s.Retrieval.TopK)
	}
	return nil
}

// ValidateGeneration checks the generation settings; generation is only
// needed by commands that answer questions.
func (s Settings) ValidateGeneration() error {
	if !s.Generation.Provider.IsValid() {
		return InvalidArgument("unknown generation provider %q", s.Generation.Provider)
	}
	if s.Generation.Provider.RequiresAPIKey() && s.Generation.APIKey == "" {
		return fmt.Errorf("%w: %s generation API key", ErrNotConfigured, s.Generation.Provider)
	}
	return nil
}
