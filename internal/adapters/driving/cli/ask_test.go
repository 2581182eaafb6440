package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_Short(t *testing.T) {
	assert.Equal(t, "Ask a question about indexed documents", askCmd.Short)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_HasDocAndSessionFlags(t *testing.T) {
	docFlag := askCmd.Flags().Lookup("doc")
	require.NotNil(t, docFlag)
	assert.Equal(t, "d", docFlag.Shorthand)

	sessionFlag := askCmd.Flags().Lookup("session")
	require.NotNil(t, sessionFlag)
	assert.Equal(t, "s", sessionFlag.Shorthand)
}

func TestAskCmd_AnswersFromIndexedDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, seedDocument("doc-1", "Manual",
		"The warranty period is two years from the date of purchase."))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "How long is the warranty?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "warranty")
	assert.Contains(t, buf.String(), "Sources:")
}

func TestAskCmd_UnknownDocumentScope(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "--doc", "ghost", "anything?"})
	defer func() {
		rootCmd.SetArgs(nil)
		askDocID = ""
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, seedDocument("doc-1", "Manual",
		"Shipping is free for orders over fifty dollars."))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--json", "Is shipping free?"})
	defer func() {
		rootCmd.SetArgs(nil)
		askJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"Text\"")
	assert.Contains(t, buf.String(), "\"Citations\"")
}
