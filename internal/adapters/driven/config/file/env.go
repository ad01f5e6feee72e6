package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// Environment variables read by ApplyEnv.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvAnthropicAPIKey    = "ANTHROPIC_API_KEY"
	EnvOllamaHost         = "OLLAMA_HOST"
	EnvPineconeAPIKey     = "PINECONE_API_KEY"
	EnvPineconeIndex      = "PINECONE_INDEX"
	EnvPineconeHost       = "PINECONE_HOST"
	EnvPineconeNamespace  = "PINECONE_NAMESPACE"
	EnvIndexProvider      = "PDFCHAT_INDEX_PROVIDER"
	EnvEmbeddingProvider  = "PDFCHAT_EMBEDDING_PROVIDER"
	EnvGenerationProvider = "PDFCHAT_GENERATION_PROVIDER"
	EnvPort               = "PORT"
)

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Variables that are already set win; missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto settings.
// Environment values take precedence over the config file.
// A nil lookup reads the process environment.
func ApplyEnv(settings *domain.Settings, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	// Providers first so the key variables land on the right service.
	if v, ok := get(EnvEmbeddingProvider); ok {
		settings.Embedding.Provider = domain.AIProvider(v)
	}
	if v, ok := get(EnvGenerationProvider); ok {
		settings.Generation.Provider = domain.AIProvider(v)
	}
	if v, ok := get(EnvIndexProvider); ok {
		settings.Index.Provider = domain.IndexProvider(v)
	}

	keys := map[domain.AIProvider]string{
		domain.AIProviderGemini:    EnvGeminiAPIKey,
		domain.AIProviderOpenAI:    EnvOpenAIAPIKey,
		domain.AIProviderAnthropic: EnvAnthropicAPIKey,
	}
	if v, ok := get(keys[settings.Embedding.Provider]); ok {
		settings.Embedding.APIKey = v
	}
	if v, ok := get(keys[settings.Generation.Provider]); ok {
		settings.Generation.APIKey = v
	}
	if v, ok := get(EnvOllamaHost); ok {
		host := ollamaURL(v)
		if settings.Embedding.Provider == domain.AIProviderOllama {
			settings.Embedding.BaseURL = host
		}
		if settings.Generation.Provider == domain.AIProviderOllama {
			settings.Generation.BaseURL = host
		}
	}

	if v, ok := get(EnvPineconeAPIKey); ok {
		settings.Index.APIKey = v
	}
	if v, ok := get(EnvPineconeIndex); ok {
		settings.Index.Name = v
	}
	if v, ok := get(EnvPineconeHost); ok {
		settings.Index.Host = v
	}
	if v, ok := get(EnvPineconeNamespace); ok {
		settings.Index.Namespace = v
	}

	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return domain.InvalidArgument("%s must be a port number, got %q", EnvPort, v)
		}
		settings.Server.Addr = ":" + v
	}
	return nil
}

// ollamaURL accepts OLLAMA_HOST in the bare host:port form the Ollama CLI uses.
func ollamaURL(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimRight(host, "/")
	}
	return "http://" + strings.TrimRight(host, "/")
}
