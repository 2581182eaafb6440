package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	indexTitle string
	indexDocID string
)

var indexCmd = &cobra.Command{
	Use:   "index [file...]",
	Short: "Index documents for question answering",
	Long: `Reads text files, splits them into overlapping chunks, and writes
every chunk to both the keyword and semantic indexes. Form feed
characters (\f) in the input mark page boundaries for citations.

Re-indexing a file with --id replaces its previous chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexTitle, "title", "", "document title (defaults to file name)")
	indexCmd.Flags().StringVar(&indexDocID, "id", "", "document ID to create or replace (single file only)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}
	if indexDocID != "" && len(args) > 1 {
		return errors.New("--id applies to a single file")
	}

	ctx := context.Background()
	bar := newProgressBar(len(args), "Indexing documents")

	var failed int
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrln(color.RedString("  %s: %v", path, err))
			failed++
			_ = bar.Add(1)
			continue
		}

		title := indexTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		doc, err := indexerService.IndexDocument(ctx, indexDocID, title, string(data))
		if err != nil {
			cmd.PrintErrln(color.RedString("  %s: %v", path, err))
			failed++
			_ = bar.Add(1)
			continue
		}

		_ = bar.Add(1)
		cmd.Println(color.GreenString("  %s → %s (%d chunks, %d pages)",
			path, doc.ID, doc.ChunkCount, doc.PageCount))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to index", failed, len(args))
	}
	return nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)
}
