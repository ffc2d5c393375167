package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline/internal/core/domain"
)

func TestCommitStore_InsertCommit_FirstCommit(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	err := store.InsertCommit(ctx, &domain.Commit{ID: "c1", WorkspaceID: "ws-1"})
	require.NoError(t, err)

	head, err := store.Head(ctx, "ws-1")
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "c1", head.ID)
}

func TestCommitStore_InsertCommit_LinearAppend(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c1", WorkspaceID: "ws-1"}))

	parent := "c1"
	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c2", WorkspaceID: "ws-1", ParentID: &parent}))

	head, err := store.Head(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "c2", head.ID)
}

func TestCommitStore_InsertCommit_StaleParent(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c1", WorkspaceID: "ws-1"}))

	parent := "c1"
	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c2", WorkspaceID: "ws-1", ParentID: &parent}))

	// A second writer still pointing at c1 must lose the race.
	err := store.InsertCommit(ctx, &domain.Commit{ID: "c3", WorkspaceID: "ws-1", ParentID: &parent})
	assert.ErrorIs(t, err, domain.ErrSynthesisConflict)
}

func TestCommitStore_InsertCommit_NilParentOnNonEmptyHistory(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c1", WorkspaceID: "ws-1"}))

	err := store.InsertCommit(ctx, &domain.Commit{ID: "c2", WorkspaceID: "ws-1"})
	assert.ErrorIs(t, err, domain.ErrSynthesisConflict)
}

func TestCommitStore_InsertCommit_WorkspacesIndependent(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c1", WorkspaceID: "ws-1"}))
	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c2", WorkspaceID: "ws-2"}))

	head, err := store.Head(ctx, "ws-2")
	require.NoError(t, err)
	assert.Equal(t, "c2", head.ID)
}

func TestCommitStore_Head_Empty(t *testing.T) {
	store := NewCommitStore()

	head, err := store.Head(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Nil(t, head)
}

func TestCommitStore_LinkSignals_AtMostOnce(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	require.NoError(t, store.LinkSignals(ctx, "c1", []string{"s1", "s2"}))

	// s2 is already linked; the whole batch must fail and s3 stay unlinked.
	err := store.LinkSignals(ctx, "c2", []string{"s3", "s2"})
	require.ErrorIs(t, err, domain.ErrSynthesisConflict)

	ids, err := store.ListLinkedSignalIDs(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = store.ListLinkedSignalIDs(ctx, "c1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)
}

func TestCommitStore_SaveVersion_BeforeCommit(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	// Versions are written before their commit exists.
	require.NoError(t, store.SaveVersion(ctx, &domain.DocumentVersion{
		ID:         "v1",
		CommitID:   "c1",
		DocumentID: "d1",
		ChangeKind: domain.ChangeCreated,
		Title:      "Roadmap",
		Content:    "Q3 priorities",
	}))

	versions, err := store.ListVersions(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, domain.ChangeCreated, versions[0].ChangeKind)
	assert.Equal(t, "Roadmap", versions[0].Title)
}

func TestCommitStore_ListCommits_NewestFirst(t *testing.T) {
	store := NewCommitStore()
	ctx := context.Background()

	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c1", WorkspaceID: "ws-1"}))
	p1 := "c1"
	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c2", WorkspaceID: "ws-1", ParentID: &p1}))
	p2 := "c2"
	require.NoError(t, store.InsertCommit(ctx, &domain.Commit{ID: "c3", WorkspaceID: "ws-1", ParentID: &p2}))

	commits, err := store.ListCommits(ctx, "ws-1", 2)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "c3", commits[0].ID)
	assert.Equal(t, "c2", commits[1].ID)
}
