package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
	"github.com/driftline/driftline/internal/core/services"
)

var synthesizeJSONFlag bool

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Fold pending signals into the world model",
	Long: `Runs one synthesis pass for the active workspace: pending signals
are sent to the LLM together with the current world-model documents,
the returned operations are applied, and a commit records the batch.

A run that races a concurrent pass fails with a retryable conflict;
the losing run's signals stay pending and are picked up next time.`,
	RunE: runSynthesize,
}

var synthesizeWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run synthesis on a schedule until interrupted",
	Long: `Starts the interval scheduler and blocks until Ctrl-C.
The interval comes from the scheduler.interval_minutes config key.`,
	RunE: runSynthesizeWatch,
}

func init() {
	synthesizeCmd.Flags().BoolVar(&synthesizeJSONFlag, "json", false, "output the run result as JSON")
	synthesizeCmd.AddCommand(synthesizeWatchCmd)
	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, _ []string) error {
	if synthesisService == nil {
		return errors.New("synthesis service not configured")
	}

	ctx := context.Background()
	workspace := resolveWorkspace()

	cmd.Printf("Synthesising workspace %s...\n", workspace)

	result, err := synthesisService.Run(ctx, workspace, domain.TriggerManual)
	if err != nil {
		if errors.Is(err, domain.ErrSynthesisConflict) {
			return fmt.Errorf("another synthesis run won the race; re-run to process remaining signals: %w", err)
		}
		return fmt.Errorf("synthesis failed: %w", err)
	}

	if synthesizeJSONFlag {
		return printJSON(cmd, result)
	}

	if result.CommitID == nil {
		cmd.Println(result.Summary)
		return nil
	}

	cmd.Printf("Commit %s: %s\n", *result.CommitID, result.Summary)
	cmd.Printf("Processed %d signals.\n", result.ProcessedCount)
	for i := range result.Operations {
		op := &result.Operations[i]
		status := "applied"
		if !op.Applied {
			status = "skipped"
		}
		cmd.Printf("  [%s] %s %s\n", status, op.Action, opTarget(op))
	}
	if len(result.PriorityRecommendations) > 0 {
		cmd.Printf("Updated %d signal priorities.\n", len(result.PriorityRecommendations))
	}
	cmd.Printf("Tokens: %d in, %d out\n", result.Usage.InputTokens, result.Usage.OutputTokens)
	return nil
}

// opTarget names the document an operation touched, preferring the title.
func opTarget(op *domain.SynthesisOperation) string {
	if op.Title != "" {
		return fmt.Sprintf("%q", op.Title)
	}
	return op.DocumentID
}

func runSynthesizeWatch(cmd *cobra.Command, _ []string) error {
	if synthesisService == nil {
		return errors.New("synthesis service not configured")
	}

	workspace := resolveWorkspace()
	interval := services.DefaultSynthesisInterval
	if configStore != nil {
		if minutes := configStore.GetInt(driven.ConfigKeySchedulerInterval); minutes > 0 {
			interval = time.Duration(minutes) * time.Minute
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Scheduling synthesis for workspace %s every %s. Ctrl-C to stop.\n", workspace, interval)

	scheduler := services.NewScheduler(workspace, interval, synthesisService)
	if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler stopped: %w", err)
	}

	cmd.Println("Scheduler stopped.")
	return nil
}
