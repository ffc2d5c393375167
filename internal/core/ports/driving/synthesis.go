package driving

import (
	"context"

	"github.com/driftline/driftline/internal/core/domain"
)

// SynthesisService folds pending signals into the workspace's world-model
// documents, producing at most one commit per run.
type SynthesisService interface {
	// Run executes one synthesis pass for the workspace. A run with
	// nothing to process returns a no-op result with a nil CommitID;
	// a run that loses a race with a concurrent pass returns
	// domain.ErrSynthesisConflict and may be retried.
	Run(ctx context.Context, workspaceID string, trigger domain.Trigger) (*domain.RunResult, error)
}

// DigestService writes a natural-language rollup of recent commits.
type DigestService interface {
	// Generate summarises the most recent window commits for the
	// workspace and scores the window's alignment against the current
	// world model.
	Generate(ctx context.Context, workspaceID string, window int) (*domain.Digest, error)
}
