package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

var (
	askShowSources bool
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested documents",
	Long: `Retrieves the passages most similar to the question and asks the
generation model to answer using them as context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askShowSources, "sources", "s", false, "print the passages used as context")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd, true)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	if svc.Answers == nil {
		return fmt.Errorf("%w: set GEMINI_API_KEY or generation.api_key", domain.ErrNotConfigured)
	}

	answer, err := svc.Answers.Answer(commandContext(cmd), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Println(answer.Response)
	if askShowSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println(mutedStyle.Render("Sources:"))
		for i := range answer.Sources {
			cmd.Printf("  [%d] %s\n", i+1, mutedStyle.Render(snippet(answer.Sources[i].Text, 120)))
		}
	}
	return nil
}
