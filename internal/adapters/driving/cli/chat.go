package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/chat"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// startChat runs the interactive view. Tests replace it.
var startChat = chat.Run

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the ingested documents interactively",
	Long: `Opens an interactive session: type a question, press enter, and the
answer appears above the input. Ctrl+S shows the passages each answer used;
Esc or Ctrl+C quits.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, true)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	if svc.Answers == nil {
		return fmt.Errorf("%w: set GEMINI_API_KEY or generation.api_key", domain.ErrNotConfigured)
	}
	return startChat(commandContext(cmd), svc.Answers)
}
