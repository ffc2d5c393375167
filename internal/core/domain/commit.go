package domain

import "time"

// Trigger records what initiated a synthesis run.
type Trigger string

// Synthesis triggers.
const (
	TriggerConversationEnd Trigger = "conversation_end"
	TriggerManual          Trigger = "manual"
	TriggerScheduled       Trigger = "scheduled"
)

// Valid reports whether t is a known trigger value.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerConversationEnd, TriggerManual, TriggerScheduled:
		return true
	}
	return false
}

// Commit is an immutable node in the workspace's synthesis history.
// Each commit points to at most one parent; the first commit of a
// workspace has a nil parent. The parent link never changes once set,
// and history-read code must never assume a bounded chain depth.
type Commit struct {
	// ID is the unique identifier for the commit.
	ID string

	// WorkspaceID is the owning workspace.
	WorkspaceID string

	// ParentID is the previous head commit, nil only for the first commit.
	ParentID *string

	// Summary is the natural-language description of the batch.
	Summary string

	// Trigger records what initiated the run.
	Trigger Trigger

	// SignalCount is how many signals were folded into this commit.
	SignalCount int

	// CreatedAt is when the commit was written.
	CreatedAt time.Time
}

// ChangeKind tags a document version with the mutation that produced it.
type ChangeKind string

// Document version change kinds.
const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// DocumentVersion is an append-only snapshot of one document's title and
// content at the moment a commit changed it. Versions are never updated
// or deleted; together they make a commit's effect replayable.
type DocumentVersion struct {
	// ID is the unique identifier for the version row.
	ID string

	// CommitID is the commit that produced the change.
	CommitID string

	// DocumentID is the affected document.
	DocumentID string

	// ChangeKind is created, modified or deleted.
	ChangeKind ChangeKind

	// Title is the document title after the change (before, for deletes).
	Title string

	// Content is the document content snapshot.
	Content string

	// CreatedAt is when the version was written.
	CreatedAt time.Time
}
