package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	digestWindow int
	digestJSON   bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Summarise recent synthesis activity",
	Long: `Generates a natural-language rollup of the most recent commits and
scores how aligned the window's activity is with the current world model.`,
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().IntVarP(&digestWindow, "window", "n", 10, "number of recent commits to cover")
	digestCmd.Flags().BoolVar(&digestJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, _ []string) error {
	if digestService == nil {
		return errors.New("digest service not configured")
	}

	digest, err := digestService.Generate(context.Background(), resolveWorkspace(), digestWindow)
	if err != nil {
		return fmt.Errorf("digest failed: %w", err)
	}

	if digestJSON {
		return printJSON(cmd, digest)
	}

	cmd.Printf("Digest (%d commits)\n\n", digest.CommitCount)
	cmd.Println(digest.Summary)
	if len(digest.Themes) > 0 {
		cmd.Printf("\nThemes: %s\n", strings.Join(digest.Themes, ", "))
	}
	cmd.Printf("\nAlignment: %.2f\n", digest.Alignment)
	return nil
}
