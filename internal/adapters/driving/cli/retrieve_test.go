package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveCmd_Use(t *testing.T) {
	assert.Equal(t, "retrieve [query]", retrieveCmd.Use)
}

func TestRetrieveCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"retrieve"})
	defer rootCmd.SetArgs(nil)

	_, cleanup := setupTestServices()
	defer cleanup()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRetrieveCmd_FindsSimilarDocuments(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	// The fake embedder maps every text to the same vector, so any
	// shared-scope document is a perfect match.
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"docs", "create", "--title", "Deploy Guide", "--content", "Deploys run from main.", "--scope", "shared"})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, rootCmd.Execute())

	buf.Reset()
	rootCmd.SetArgs([]string{"retrieve", "how do we deploy", "--scope", "shared"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, buf.String(), "Deploy Guide")
	assert.Contains(t, buf.String(), "Deploys run from main.")
}

func TestRetrieveCmd_EmptyResultIsNotAnError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "anything", "--scope", "shared"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No relevant context found.")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "first line", snippet("first line\nsecond line"))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	got := snippet(string(long))
	assert.Len(t, got, 123)
	assert.Contains(t, got, "...")
}
