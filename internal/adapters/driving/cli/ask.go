package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	askDocID   string
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed documents",
	Long: `Runs hybrid retrieval over the indexed chunks, then synthesizes an
answer with page-level citations. Use --session to keep conversation
history across questions so follow-ups can refer to earlier answers.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocID, "doc", "d", "", "restrict the question to one document ID")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "conversation session ID")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	answer, err := queryService.Ask(context.Background(), askDocID, askSession, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println(color.CyanString("Sources:"))
		for i, c := range answer.Citations {
			cmd.Printf("  [%d] %s p.%d", i+1, c.DocumentID, c.Page)
			if c.Snippet != "" {
				cmd.Printf(": %s", c.Snippet)
			}
			cmd.Println()
		}
	}

	if answer.FromCache {
		cmd.Println(color.YellowString("(cached)"))
	}
	return nil
}
