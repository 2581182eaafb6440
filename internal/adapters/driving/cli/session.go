package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset [session-id]",
	Short: "Clear a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionReset,
}

func init() {
	sessionCmd.AddCommand(sessionResetCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionReset(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	queryService.ResetSession(args[0])
	cmd.Printf("Session %s cleared.\n", args[0])
	return nil
}
