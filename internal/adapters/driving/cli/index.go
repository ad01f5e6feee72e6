package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the vector index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexStats,
}

func init() {
	indexStatsCmd.Flags().BoolVar(&indexJSON, "json", false, "output statistics as JSON")
	indexCmd.AddCommand(indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd, false)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	stats, err := svc.Index.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	if indexJSON {
		return outputJSON(cmd, stats)
	}

	cmd.Println(titleStyle.Render("Index"))
	cmd.Printf("  Provider:  %s\n", svc.Settings.Index.Provider)
	cmd.Printf("  Name:      %s\n", stats.Name)
	cmd.Printf("  Dimension: %d\n", stats.Dimension)
	cmd.Printf("  Vectors:   %d\n", stats.TotalVectors)

	if len(stats.Namespaces) > 0 {
		names := make([]string, 0, len(stats.Namespaces))
		for name := range stats.Namespaces {
			names = append(names, name)
		}
		sort.Strings(names)

		cmd.Println("  Namespaces:")
		for _, name := range names {
			label := name
			if label == "" {
				label = "(default)"
			}
			cmd.Printf("    %s: %d\n", label, stats.Namespaces[name])
		}
	}
	return nil
}
