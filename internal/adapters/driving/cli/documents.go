package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage indexed documents",
	Long:  `List, delete, or rebuild the indexed documents.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild both search indexes from stored chunks",
	Long: `Repopulates the keyword and semantic indexes from the persisted
chunks of every indexed document. Stored embeddings are reused, so no
embedding calls are made.`,
	Args: cobra.NoArgs,
	RunE: runDocumentsRebuild,
}

func init() {
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsRebuildCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	docs, err := indexerService.ListDocuments(context.Background())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if documentsJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("  %s  %-10s %s (%d chunks, %d pages)\n",
			doc.ID, doc.State, title, doc.ChunkCount, doc.PageCount)
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	if err := indexerService.DeleteDocument(context.Background(), args[0]); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

func runDocumentsRebuild(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	if err := indexerService.Rebuild(context.Background()); err != nil {
		return fmt.Errorf("rebuild indexes: %w", err)
	}
	cmd.Println("Indexes rebuilt.")
	return nil
}
