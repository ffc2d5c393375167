package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the synthesis commit history",
	Long: `Lists the workspace's commits, newest first. Each commit records
one synthesis batch: the signals folded in and the document versions
written. Use 'history show' to inspect a single commit.`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [commit-id]",
	Short: "Show one commit with its document versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of commits")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	workspace := resolveWorkspace()
	commits, err := historyService.ListCommits(context.Background(), workspace, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list commits: %w", err)
	}

	if historyJSON {
		return printJSON(cmd, commits)
	}

	if len(commits) == 0 {
		cmd.Println("No commits yet.")
		return nil
	}

	cmd.Printf("History for workspace %s:\n\n", workspace)
	for i := range commits {
		c := &commits[i]
		cmd.Printf("  %s  %s\n", c.ID, c.CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("    %s\n", c.Summary)
		cmd.Printf("    Trigger: %s, %d signals\n", c.Trigger, c.SignalCount)
		cmd.Println()
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	detail, err := historyService.CommitDetail(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get commit: %w", err)
	}

	if historyJSON {
		return printJSON(cmd, detail)
	}

	c := &detail.Commit
	cmd.Printf("Commit: %s\n\n", c.ID)
	if c.ParentID != nil {
		cmd.Printf("  Parent:   %s\n", *c.ParentID)
	} else {
		cmd.Printf("  Parent:   (none)\n")
	}
	cmd.Printf("  Summary:  %s\n", c.Summary)
	cmd.Printf("  Trigger:  %s\n", c.Trigger)
	cmd.Printf("  Created:  %s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(detail.Versions) > 0 {
		cmd.Println("\n  Document versions:")
		for i := range detail.Versions {
			v := &detail.Versions[i]
			cmd.Printf("    [%s] %s (%s)\n", v.ChangeKind, v.Title, v.DocumentID)
		}
	}

	if len(detail.SignalIDs) > 0 {
		cmd.Println("\n  Signals:")
		for _, id := range detail.SignalIDs {
			cmd.Printf("    %s\n", id)
		}
	}
	return nil
}
