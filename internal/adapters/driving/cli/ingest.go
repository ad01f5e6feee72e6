package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/connectors/filesystem"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

var (
	ingestText   string
	ingestSource string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest PDF files into the vector index",
	Long: `Extracts the text of each PDF, splits it into overlapping chunks,
embeds every chunk and stores the vectors in the index.

Directories are walked recursively and every .pdf file inside is ingested.
Use --text to ingest a block of plain text instead of files.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest this text instead of files")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source name recorded with --text")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestText == "" && len(args) == 0 {
		return errors.New("requires at least one path or --text")
	}

	svc, err := loadServices(cmd, false)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	ctx := commandContext(cmd)

	if ingestText != "" {
		var metadata map[string]any
		if ingestSource != "" {
			metadata = map[string]any{domain.MetadataSource: ingestSource}
		}
		n, err := svc.Ingest.Ingest(ctx, ingestText, metadata)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Println(successStyle.Render(fmt.Sprintf("Stored %d text chunks.", n)))
		return nil
	}

	var failed int
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot access %s: %w", path, err)
		}

		if info.IsDir() {
			results, err := filesystem.New(path, svc.Uploads).Sync(ctx)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			for _, r := range results {
				if !printResult(cmd, r) {
					failed++
				}
			}
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		upload, err := svc.Uploads.Upload(ctx, filepath.Base(path), data)
		if !printResult(cmd, filesystem.Result{Path: path, Upload: upload, Err: err}) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to ingest", failed)
	}
	return nil
}

// printResult reports one ingested file and returns whether it succeeded.
func printResult(cmd *cobra.Command, r filesystem.Result) bool {
	if r.Err != nil {
		cmd.Printf("%s %s: %v\n", errorStyle.Render("✗"), r.Path, r.Err)
		return false
	}
	cmd.Printf("%s %s %s\n", successStyle.Render("✓"), r.Path,
		mutedStyle.Render(fmt.Sprintf("(%d chunks, %d characters)", r.Upload.Chunks, r.Upload.FileInfo.TextLength)))
	return true
}
