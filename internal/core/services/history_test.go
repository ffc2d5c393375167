package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline/internal/adapters/driven/storage/memory"
	"github.com/driftline/driftline/internal/core/domain"
)

func TestHistoryService_ListCommits(t *testing.T) {
	commits := memory.NewCommitStore()
	seedCommits(t, commits, "first", "second", "third")

	svc := NewHistoryService(commits)
	listed, err := svc.ListCommits(context.Background(), "ws-1", 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "third", listed[0].Summary)
	assert.Equal(t, "second", listed[1].Summary)
}

func TestHistoryService_ListCommits_DefaultLimit(t *testing.T) {
	commits := memory.NewCommitStore()
	seedCommits(t, commits, "only one")

	svc := NewHistoryService(commits)
	listed, err := svc.ListCommits(context.Background(), "ws-1", 0)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestHistoryService_CommitDetail(t *testing.T) {
	ctx := context.Background()
	commits := memory.NewCommitStore()
	seedCommits(t, commits, "folded signals")

	require.NoError(t, commits.SaveVersion(ctx, &domain.DocumentVersion{
		ID: "v1", CommitID: "a", DocumentID: "d1",
		ChangeKind: domain.ChangeCreated, Title: "Doc", Content: "text",
	}))
	require.NoError(t, commits.LinkSignals(ctx, "a", []string{"s1", "s2"}))

	svc := NewHistoryService(commits)
	detail, err := svc.CommitDetail(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "folded signals", detail.Commit.Summary)
	require.Len(t, detail.Versions, 1)
	assert.Equal(t, "d1", detail.Versions[0].DocumentID)
	assert.ElementsMatch(t, []string{"s1", "s2"}, detail.SignalIDs)
}

func TestHistoryService_CommitDetail_NotFound(t *testing.T) {
	svc := NewHistoryService(memory.NewCommitStore())
	_, err := svc.CommitDetail(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
