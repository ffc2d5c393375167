package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driving"
)

var (
	signalAuthor       string
	signalConversation string
	signalMessage      string
	signalPriority     string
	signalListAll      bool
	signalListJSON     bool
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Manage captured signals",
	Long:  `Capture, list, prioritise and close out signals awaiting synthesis.`,
}

var signalAddCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Capture a new signal",
	Long: `Captures an atomic observation for the active workspace.
The signal is embedded best-effort and queued for the next synthesis run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSignalAdd,
}

var signalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending signals",
	Long: `Lists signals not yet folded into a commit.
Use --all to include processed and resolved signals.`,
	RunE: runSignalList,
}

var signalPriorityCmd = &cobra.Command{
	Use:   "priority [signal-id] [critical|high|medium|low|clear]",
	Short: "Set or clear the reviewer priority",
	Args:  cobra.ExactArgs(2),
	RunE:  runSignalPriority,
}

var signalResolveCmd = &cobra.Command{
	Use:   "resolve [signal-id]",
	Short: "Mark a signal resolved",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignalResolve,
}

var signalDismissCmd = &cobra.Command{
	Use:   "dismiss [signal-id]",
	Short: "Dismiss a signal, excluding it from synthesis",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignalDismiss,
}

var signalStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the workspace synthesis status",
	Long:  `Prints the current head commit and the number of signals awaiting synthesis.`,
	RunE:  runSignalStatus,
}

func init() {
	signalAddCmd.Flags().StringVarP(&signalAuthor, "author", "a", "", "author user ID (required)")
	signalAddCmd.Flags().StringVar(&signalConversation, "conversation", "", "source conversation ID")
	signalAddCmd.Flags().StringVar(&signalMessage, "message", "", "source message ID")
	signalAddCmd.Flags().StringVarP(&signalPriority, "priority", "p", "", "model-assigned priority (critical|high|medium|low)")
	_ = signalAddCmd.MarkFlagRequired("author")

	signalListCmd.Flags().BoolVar(&signalListAll, "all", false, "include processed signals")
	signalListCmd.Flags().BoolVar(&signalListJSON, "json", false, "output as JSON")

	signalCmd.AddCommand(signalAddCmd)
	signalCmd.AddCommand(signalListCmd)
	signalCmd.AddCommand(signalPriorityCmd)
	signalCmd.AddCommand(signalResolveCmd)
	signalCmd.AddCommand(signalDismissCmd)
	signalCmd.AddCommand(signalStatusCmd)
	rootCmd.AddCommand(signalCmd)
}

func runSignalAdd(cmd *cobra.Command, args []string) error {
	if signalService == nil {
		return errors.New("signal service not configured")
	}

	ctx := context.Background()
	sig, err := signalService.Capture(ctx, driving.NewSignal{
		WorkspaceID:    resolveWorkspace(),
		AuthorID:       signalAuthor,
		ConversationID: signalConversation,
		MessageID:      signalMessage,
		Content:        args[0],
		AIPriority:     domain.Priority(signalPriority),
	})
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	cmd.Printf("Captured signal %s\n", sig.ID)
	if sig.Embedding == nil {
		cmd.Println("Note: signal saved without an embedding.")
	}
	return nil
}

func runSignalList(cmd *cobra.Command, _ []string) error {
	if signalService == nil {
		return errors.New("signal service not configured")
	}

	ctx := context.Background()
	workspace := resolveWorkspace()

	var (
		signals []domain.Signal
		err     error
	)
	if signalListAll {
		signals, err = signalService.List(ctx, workspace)
	} else {
		signals, err = signalService.ListUnprocessed(ctx, workspace)
	}
	if err != nil {
		return fmt.Errorf("failed to list signals: %w", err)
	}

	if signalListJSON {
		return printJSON(cmd, signals)
	}

	if len(signals) == 0 {
		cmd.Println("No signals found.")
		return nil
	}

	cmd.Printf("Signals for workspace %s:\n\n", workspace)
	for i := range signals {
		sig := &signals[i]
		cmd.Printf("  %s\n", sig.ID)
		cmd.Printf("    %s\n", sig.Content)
		if p := sig.EffectivePriority(); p != "" {
			cmd.Printf("    Priority: %s\n", p)
		}
		cmd.Printf("    Status: %s, captured %s\n", sig.Status, sig.CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d signals\n", len(signals))
	return nil
}

func runSignalPriority(cmd *cobra.Command, args []string) error {
	if signalService == nil {
		return errors.New("signal service not configured")
	}

	ctx := context.Background()
	id := args[0]

	if args[1] == "clear" {
		if err := signalService.SetHumanPriority(ctx, id, nil); err != nil {
			return fmt.Errorf("failed to clear priority: %w", err)
		}
		cmd.Printf("Cleared reviewer priority on signal %s\n", id)
		return nil
	}

	priority := domain.Priority(args[1])
	if !priority.Valid() {
		return fmt.Errorf("invalid priority %q (use critical, high, medium, low or clear)", args[1])
	}

	if err := signalService.SetHumanPriority(ctx, id, &priority); err != nil {
		return fmt.Errorf("failed to set priority: %w", err)
	}

	cmd.Printf("Signal %s priority set to %s\n", id, priority)
	return nil
}

func runSignalResolve(cmd *cobra.Command, args []string) error {
	if signalService == nil {
		return errors.New("signal service not configured")
	}

	if err := signalService.Resolve(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to resolve signal: %w", err)
	}

	cmd.Printf("Signal %s resolved.\n", args[0])
	return nil
}

func runSignalDismiss(cmd *cobra.Command, args []string) error {
	if signalService == nil {
		return errors.New("signal service not configured")
	}

	if err := signalService.Dismiss(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to dismiss signal: %w", err)
	}

	cmd.Printf("Signal %s dismissed.\n", args[0])
	return nil
}

func runSignalStatus(cmd *cobra.Command, _ []string) error {
	if signalService == nil || historyService == nil {
		return errors.New("services not configured")
	}

	ctx := context.Background()
	workspace := resolveWorkspace()

	pending, err := signalService.ListUnprocessed(ctx, workspace)
	if err != nil {
		return fmt.Errorf("failed to list signals: %w", err)
	}

	commits, err := historyService.ListCommits(ctx, workspace, 1)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	cmd.Printf("Workspace: %s\n", workspace)
	if len(commits) == 0 {
		cmd.Println("Head:      (no commits yet)")
	} else {
		cmd.Printf("Head:      %s (%s)\n", commits[0].ID, commits[0].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("           %s\n", commits[0].Summary)
	}
	cmd.Printf("Pending:   %d signals awaiting synthesis\n", len(pending))
	return nil
}
