package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/driftline/driftline/internal/core/domain"
)

var (
	retrieveScope string
	retrieveOwner string
	retrieveLimit int
	retrieveJSON  bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve grounding context for a query",
	Long: `Performs a similarity search over one document scope and returns
the most relevant logical documents. Retrieval is best-effort: failures
yield an empty result, never an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveScope, "scope", "s", string(domain.ScopeSynthesis), "document scope (personal|shared|org|synthesis)")
	retrieveCmd.Flags().StringVarP(&retrieveOwner, "owner", "o", "", "owner user ID (required for personal scope)")
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "n", 5, "maximum number of results")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := context.Background()
	var owner *string
	if retrieveOwner != "" {
		owner = &retrieveOwner
	}

	results := retrievalService.Retrieve(
		ctx, resolveWorkspace(), owner, domain.Scope(retrieveScope), args[0], retrieveLimit)

	if retrieveJSON {
		return printJSON(cmd, results)
	}

	if len(results) == 0 {
		cmd.Println("No relevant context found.")
		return nil
	}

	cmd.Println("Context:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, results[i].Title, results[i].Similarity)
		cmd.Printf("      %s\n", snippet(results[i].Content))
		cmd.Println()
	}
	return nil
}

// snippet returns the first line of content, truncated for display.
func snippet(content string) string {
	const maxLen = 120
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			content = content[:i]
			break
		}
	}
	if len(content) > maxLen {
		return content[:maxLen] + "..."
	}
	return content
}
