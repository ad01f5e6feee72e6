package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Manage application settings",
	Long: `View and change the settings stored in the config file.

Environment variables (GEMINI_API_KEY, PINECONE_API_KEY, PINECONE_INDEX, ...)
and a .env file in the working directory override stored values.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a setting",
	Long: `Store a setting in the config file.

Run "pdfchat config keys" for the list of keys.
Durations use Go syntax, for example 100ms or 2m.

Omit the value of an API key to be prompted for it without echo,
which keeps the key out of shell history:
  pdfchat config set embedding.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the settable keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the configured providers",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if bootstrapper == nil {
		return errors.New("settings service not configured")
	}
	settings, err := bootstrapper.Settings(configPath)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(titleStyle.Render("Current Settings"))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	printOptional(cmd, "Base URL", settings.Embedding.BaseURL)
	cmd.Printf("  API Key: %s\n", displayAPIKey(settings.Embedding.APIKey))
	cmd.Printf("  Timeout: %s\n", settings.Embedding.Timeout)
	cmd.Printf("  Query cache: %d\n", settings.Embedding.QueryCacheSize)
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Provider: %s\n", settings.Index.Provider)
	printOptional(cmd, "Name", settings.Index.Name)
	printOptional(cmd, "Host", settings.Index.Host)
	printOptional(cmd, "Namespace", settings.Index.Namespace)
	if settings.Index.Provider.IsRemote() {
		cmd.Printf("  API Key: %s\n", displayAPIKey(settings.Index.APIKey))
	}
	if settings.Index.Dimension > 0 {
		cmd.Printf("  Dimension: %d\n", settings.Index.Dimension)
	}
	printOptional(cmd, "Data dir", settings.Index.DataDir)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Rate Limit]")
	cmd.Printf("  Interval: %s\n", settings.RateLimit.Interval)
	cmd.Printf("  Burst: %d\n", settings.RateLimit.Burst)
	cmd.Printf("  Concurrency: %d\n", settings.RateLimit.Concurrency)
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Provider: %s\n", settings.Generation.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Generation.Model)
	printOptional(cmd, "Base URL", settings.Generation.BaseURL)
	cmd.Printf("  API Key: %s\n", displayAPIKey(settings.Generation.APIKey))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Max upload: %d bytes\n", settings.Server.MaxUploadBytes)
	cmd.Println()

	status := successStyle.Render("ready")
	if err := settings.Validate(); err != nil {
		status = warningStyle.Render(err.Error())
	}
	cmd.Printf("Status: %s\n", status)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case isSecretKey(key):
		cmd.Printf("Enter value for %s: ", key)
		value = readSecret(cmd.InOrStdin())
		cmd.Println()
		if value == "" {
			return fmt.Errorf("a value is required for %s", key)
		}
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := svc.Set(key, value); err != nil {
		return err
	}

	if isSecretKey(key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	cmd.Println(svc.Path())
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	settings, err := bootstrapper.Settings(configPath)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	var failed int
	for _, check := range svc.Check(commandContext(cmd), settings) {
		if check.Err != nil {
			failed++
			cmd.Printf("%s %-10s %s: %v\n", errorStyle.Render("✗"), check.Name, check.Detail, check.Err)
			continue
		}
		cmd.Printf("%s %-10s %s\n", successStyle.Render("✓"), check.Name, check.Detail)
	}

	if failed > 0 {
		return fmt.Errorf("%d provider check(s) failed", failed)
	}
	return nil
}

func printOptional(cmd *cobra.Command, label, value string) {
	if value != "" {
		cmd.Printf("  %s: %s\n", label, value)
	}
}

func displayAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

// isSecretKey reports whether a setting holds a credential.
// readSecret reads one line from in without echo when in is a terminal.
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

func isSecretKey(key string) bool {
	switch key {
	case "embedding.api_key", "index.api_key", "generation.api_key":
		return true
	}
	return false
}

// maskAPIKey masks an API key for display, showing only first and last 4 chars.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
