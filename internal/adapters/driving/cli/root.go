// Package cli provides the command-line interface for pdfchat.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// version is set by Execute from the build version.
var version = "dev"

var (
	verbose    bool
	configPath string
)

// Services are the core services a command runs against.
type Services struct {
	Ingest    driving.IngestService
	Uploads   driving.UploadService
	Retrieval driving.RetrievalService
	Answers   driving.AnswerService // nil when no generation provider is configured
	Index     driving.IndexService

	// Settings are the effective settings the services were built from.
	Settings domain.Settings

	// Close releases provider connections.
	Close func()
}

// Bootstrapper builds services once flags have been parsed.
type Bootstrapper interface {
	// SettingsService opens the settings store at path ("" selects the default).
	SettingsService(path string) (driving.SettingsService, error)

	// Settings returns the stored settings with environment overrides applied.
	Settings(path string) (domain.Settings, error)

	// Services builds the providers and core services. The generator is
	// only built when withGenerator is set and generation is configured.
	Services(ctx context.Context, path string, withGenerator bool) (*Services, error)
}

var bootstrapper Bootstrapper

// SetBootstrapper sets how commands obtain their services.
func SetBootstrapper(b Bootstrapper) {
	bootstrapper = b
}

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "Chat with your PDFs",
	Long: `pdfchat ingests PDF documents into a vector index and answers questions
using the passages most similar to each question.

Run "pdfchat config show" to see the active settings, or set the
GEMINI_API_KEY and PINECONE_API_KEY environment variables to get started.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.pdfchat/config.toml)")
}

// Execute runs the root command. It cancels the command context on SIGINT or SIGTERM.
func Execute(v string) error {
	if v != "" {
		version = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// loadServices builds services for a command.
func loadServices(cmd *cobra.Command, withGenerator bool) (*Services, error) {
	if bootstrapper == nil {
		return nil, errors.New("services not configured")
	}
	svc, err := bootstrapper.Services(commandContext(cmd), configPath, withGenerator)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise: %w", err)
	}
	return svc, nil
}

// loadSettingsService opens the settings store for a command.
func loadSettingsService() (driving.SettingsService, error) {
	if bootstrapper == nil {
		return nil, errors.New("settings service not configured")
	}
	return bootstrapper.SettingsService(configPath)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeServices(svc *Services) {
	if svc.Close != nil {
		svc.Close()
	}
}
