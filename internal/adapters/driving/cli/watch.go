package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/connectors/filesystem"
)

var (
	watchDebounce time.Duration
	watchSkipSync bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest PDFs as they appear in a directory",
	Long: `Ingests every PDF already in the directory, then keeps running and
ingests PDFs that are created or modified until interrupted.

Re-ingesting a file overwrites its previous vectors. Deleting a file does
not remove its vectors from the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before a changed file is ingested")
	watchCmd.Flags().BoolVar(&watchSkipSync, "no-sync", false, "skip the initial ingest of existing files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd, false)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	ctx := commandContext(cmd)
	watcher := filesystem.New(args[0], svc.Uploads, filesystem.WithDebounce(watchDebounce))
	defer watcher.Close()

	if !watchSkipSync {
		results, err := watcher.Sync(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			printResult(cmd, r)
		}
	}

	events, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Println(mutedStyle.Render(fmt.Sprintf("Watching %s (Ctrl+C to stop)", watcher.Root())))

	for r := range events {
		printResult(cmd, r)
	}
	return nil
}
