package driven

import (
	"context"

	"github.com/driftline/driftline/internal/core/domain"
)

// CommitStore persists the synthesis history: commits, document version
// snapshots and commit-signal links.
//
// Two storage-level guards protect the history against concurrent runs:
//
//   - InsertCommit verifies, atomically with the insert, that the
//     workspace head still equals the commit's ParentID and fails with
//     domain.ErrSynthesisConflict otherwise.
//   - LinkSignals enforces a uniqueness constraint on signal ID across
//     all links; a violation also maps to domain.ErrSynthesisConflict.
type CommitStore interface {
	// Head returns the most recently created commit for the workspace,
	// or nil when the workspace has no commits.
	Head(ctx context.Context, workspaceID string) (*domain.Commit, error)

	// GetCommit retrieves a commit by ID.
	GetCommit(ctx context.Context, id string) (*domain.Commit, error)

	// InsertCommit writes a new commit after an optimistic head check.
	InsertCommit(ctx context.Context, commit *domain.Commit) error

	// LinkSignals links signals to a commit. Each signal may ever be
	// linked to at most one commit.
	LinkSignals(ctx context.Context, commitID string, signalIDs []string) error

	// SaveVersion appends one document version snapshot. Versions are
	// written before their commit; on an aborted run they stay orphaned
	// and harmless.
	SaveVersion(ctx context.Context, version *domain.DocumentVersion) error

	// ListCommits returns the newest commits for a workspace, newest
	// first, up to limit.
	ListCommits(ctx context.Context, workspaceID string, limit int) ([]domain.Commit, error)

	// ListVersions returns the version snapshots written by one commit.
	ListVersions(ctx context.Context, commitID string) ([]domain.DocumentVersion, error)

	// ListLinkedSignalIDs returns the IDs of signals folded into a commit.
	ListLinkedSignalIDs(ctx context.Context, commitID string) ([]string, error)
}
