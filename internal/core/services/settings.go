package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedTimeout    = "embedding.timeout"
	keyEmbedCacheSize  = "embedding.query_cache_size"
	keyIndexProvider   = "index.provider"
	keyIndexName       = "index.name"
	keyIndexHost       = "index.host"
	keyIndexAPIKey     = "index.api_key"
	keyIndexNamespace  = "index.namespace"
	keyIndexDimension  = "index.dimension"
	keyIndexDataDir    = "index.data_dir"
	keyIndexTimeout    = "index.timeout"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyRateInterval    = "rate_limit.interval"
	keyRateBurst       = "rate_limit.burst"
	keyRateConcurrency = "rate_limit.concurrency"
	keyGenProvider     = "generation.provider"
	keyGenModel        = "generation.model"
	keyGenBaseURL      = "generation.base_url"
	keyGenAPIKey       = "generation.api_key"
	keyGenTimeout      = "generation.timeout"
	keyTopK            = "retrieval.top_k"
	keyServerAddr      = "server.addr"
	keyServerMaxUpload = "server.max_upload_bytes"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindDuration
)

// settableKeys lists every key Set accepts, in display order.
var settableKeys = []struct {
	name string
	kind valueKind
}{
	{keyEmbedProvider, kindString},
	{keyEmbedModel, kindString},
	{keyEmbedBaseURL, kindString},
	{keyEmbedAPIKey, kindString},
	{keyEmbedTimeout, kindDuration},
	{keyEmbedCacheSize, kindInt},
	{keyIndexProvider, kindString},
	{keyIndexName, kindString},
	{keyIndexHost, kindString},
	{keyIndexAPIKey, kindString},
	{keyIndexNamespace, kindString},
	{keyIndexDimension, kindInt},
	{keyIndexDataDir, kindString},
	{keyIndexTimeout, kindDuration},
	{keyChunkSize, kindInt},
	{keyChunkOverlap, kindInt},
	{keyRateInterval, kindDuration},
	{keyRateBurst, kindInt},
	{keyRateConcurrency, kindInt},
	{keyGenProvider, kindString},
	{keyGenModel, kindString},
	{keyGenBaseURL, kindString},
	{keyGenAPIKey, kindString},
	{keyGenTimeout, kindDuration},
	{keyTopK, kindInt},
	{keyServerAddr, kindString},
	{keyServerMaxUpload, kindInt},
}

// SettingsService reads and writes settings through a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.ProviderValidator
}

// NewSettingsService creates a new settings service.
// validator may be nil, in which case Check reports nothing.
func NewSettingsService(configStore driven.ConfigStore, validator driven.ProviderValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (domain.Settings, error) {
	d := domain.DefaultSettings()

	return domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:       s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:          s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:        s.configStore.GetString(keyEmbedBaseURL),
			APIKey:         s.configStore.GetString(keyEmbedAPIKey),
			Timeout:        s.getDuration(keyEmbedTimeout, d.Embedding.Timeout),
			QueryCacheSize: s.getInt(keyEmbedCacheSize, d.Embedding.QueryCacheSize),
		},
		Index: domain.IndexSettings{
			Provider:  s.getIndexProvider(d.Index.Provider),
			Name:      s.configStore.GetString(keyIndexName),
			Host:      s.configStore.GetString(keyIndexHost),
			APIKey:    s.configStore.GetString(keyIndexAPIKey),
			Namespace: s.configStore.GetString(keyIndexNamespace),
			Dimension: s.getInt(keyIndexDimension, d.Index.Dimension),
			DataDir:   s.configStore.GetString(keyIndexDataDir),
			Timeout:   s.getDuration(keyIndexTimeout, d.Index.Timeout),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		RateLimit: domain.RateLimitSettings{
			Interval:    s.getDuration(keyRateInterval, d.RateLimit.Interval),
			Burst:       s.getInt(keyRateBurst, d.RateLimit.Burst),
			Concurrency: s.getInt(keyRateConcurrency, d.RateLimit.Concurrency),
		},
		Generation: domain.GenerationSettings{
			Provider: s.getProvider(keyGenProvider, d.Generation.Provider),
			Model:    s.getString(keyGenModel, d.Generation.Model),
			BaseURL:  s.configStore.GetString(keyGenBaseURL),
			APIKey:   s.configStore.GetString(keyGenAPIKey),
			Timeout:  s.getDuration(keyGenTimeout, d.Generation.Timeout),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyTopK, d.Retrieval.TopK),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, d.Server.Addr),
			MaxUploadBytes: int64(s.getInt(keyServerMaxUpload, int(d.Server.MaxUploadBytes))),
		},
	}, nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	for _, k := range settableKeys {
		if k.name != key {
			continue
		}
		switch k.kind {
		case kindInt:
			n, err := strconv.Atoi(value)
			if err != nil {
				return domain.InvalidArgument("%s expects an integer, got %q", key, value)
			}
			return s.configStore.Set(key, n)
		case kindDuration:
			if _, err := time.ParseDuration(value); err != nil {
				return domain.InvalidArgument("%s expects a duration such as 100ms, got %q", key, value)
			}
			return s.configStore.Set(key, value)
		default:
			return s.configStore.Set(key, value)
		}
	}
	return domain.InvalidArgument("unknown setting %q", key)
}

// Keys returns the names of all settable keys.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settableKeys))
	for i, k := range settableKeys {
		keys[i] = k.name
	}
	return keys
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Check pings the embedding provider, the index and, when it is configured,
// the generation provider.
func (s *SettingsService) Check(ctx context.Context, settings domain.Settings) []driving.ProviderCheck {
	if s.validator == nil {
		return nil
	}

	checks := []driving.ProviderCheck{{
		Name:   domain.ProviderEmbedding,
		Detail: fmt.Sprintf("%s (%s)", settings.Embedding.Provider, settings.Embedding.Model),
		Err:    s.validator.ValidateEmbedding(settings.Embedding),
	}}

	stats, err := s.validator.ValidateIndex(ctx, settings.Index)
	detail := settings.Index.Provider.String()
	if err == nil {
		detail = fmt.Sprintf("%s %q: %d vectors, dimension %d",
			settings.Index.Provider, stats.Name, stats.TotalVectors, stats.Dimension)
	}
	checks = append(checks, driving.ProviderCheck{Name: domain.ProviderIndex, Detail: detail, Err: err})

	if settings.Generation.IsConfigured() {
		checks = append(checks, driving.ProviderCheck{
			Name:   domain.ProviderGeneration,
			Detail: fmt.Sprintf("%s (%s)", settings.Generation.Provider, settings.Generation.Model),
			Err:    s.validator.ValidateGeneration(settings.Generation),
		})
	}
	return checks
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}

func (s *SettingsService) getIndexProvider(defaultVal domain.IndexProvider) domain.IndexProvider {
	val := s.configStore.GetString(keyIndexProvider)
	if val == "" {
		return defaultVal
	}
	return domain.IndexProvider(val)
}
