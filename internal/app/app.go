// Package app wires configuration, providers and core services together.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/core/services"
	"github.com/custodia-labs/pdfchat/internal/logger"
	"github.com/custodia-labs/pdfchat/internal/normalisers/pdf"
	"github.com/custodia-labs/pdfchat/internal/postprocessors/chunker"
	"github.com/custodia-labs/pdfchat/internal/ratelimit"
)

// Ensure Bootstrapper implements the interface.
var _ cli.Bootstrapper = (*Bootstrapper)(nil)

// Bootstrapper builds the services used by the CLI.
type Bootstrapper struct {
	lookup file.LookupFunc
}

// New creates a bootstrapper. A nil lookup reads the process environment.
func New(lookup file.LookupFunc) *Bootstrapper {
	return &Bootstrapper{lookup: lookup}
}

// Run loads .env, installs the bootstrapper and executes the CLI.
func Run(version string) error {
	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("%v", err)
	}
	cli.SetBootstrapper(New(nil))
	return cli.Execute(version)
}

// SettingsService opens the config file at path.
func (b *Bootstrapper) SettingsService(path string) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// Settings returns the stored settings with environment overrides applied.
func (b *Bootstrapper) Settings(path string) (domain.Settings, error) {
	settings, _, err := b.settings(path)
	return settings, err
}

func (b *Bootstrapper) settings(path string) (domain.Settings, driving.SettingsService, error) {
	svc, err := b.SettingsService(path)
	if err != nil {
		return domain.Settings{}, nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return domain.Settings{}, nil, err
	}
	if err := file.ApplyEnv(&settings, b.lookup); err != nil {
		return domain.Settings{}, nil, err
	}
	return settings, svc, nil
}

// Services builds the providers and the core services from settings.
func (b *Bootstrapper) Services(ctx context.Context, path string, withGenerator bool) (*cli.Services, error) {
	settings, settingsSvc, err := b.settings(path)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	// Generation is optional: commands that need it check for a nil AnswerService.
	withGenerator = withGenerator && settings.Generation.IsConfigured()
	if withGenerator {
		if err := settings.ValidateGeneration(); err != nil {
			return nil, err
		}
	}

	logger.Section("Initialising providers")
	providers, err := ai.Build(ctx, settings, withGenerator)
	if err != nil {
		return nil, err
	}
	logger.Debug("embedding: %s (%s)", settings.Embedding.Provider, settings.Embedding.Model)
	logger.Debug("index: %s", settings.Index.Provider)

	chunks := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	ingester := services.NewIngestService(
		chunks,
		providers.Embedder,
		providers.VectorIndex,
		ratelimit.FromSettings(settings.RateLimit),
		services.WithConcurrency(settings.RateLimit.Concurrency),
	)
	retrieval := services.NewRetrievalService(providers.QueryEmbedder, providers.VectorIndex, settings.Retrieval.TopK)

	svc := &cli.Services{
		Ingest:    ingester,
		Uploads:   services.NewUploadService(pdf.New(), ingester, settings.Server.MaxUploadBytes),
		Retrieval: retrieval,
		Index:     retrieval,
		Settings:  settings,
		Close:     providers.Close,
	}

	if providers.Generator != nil {
		logger.Debug("generation: %s (%s)", settings.Generation.Provider, settings.Generation.Model)
		answers := services.NewAnswerService(retrieval, providers.Generator, settings.Retrieval.TopK)

		prompts, err := file.NewPromptStore(filepath.Join(filepath.Dir(settingsSvc.Path()), "prompts"))
		if err != nil {
			logger.Warn("custom prompts disabled: %v", err)
		} else {
			answers.SetPromptStore(prompts)
		}
		svc.Answers = answers
	}

	return svc, nil
}
