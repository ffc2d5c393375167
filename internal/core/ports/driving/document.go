package driving

import (
	"context"

	"github.com/driftline/driftline/internal/core/domain"
)

// NewDocument is the caller-supplied part of a document.
type NewDocument struct {
	// WorkspaceID is the owning workspace.
	WorkspaceID string

	// Scope is the visibility partition.
	Scope domain.Scope

	// OwnerID is required for personal documents, nil otherwise.
	OwnerID *string

	// Title is the document title.
	Title string

	// Content is the document text. Nil for file-backed documents.
	Content *string

	// FileRef is an optional blob storage reference.
	FileRef *string
}

// DocumentService manages user- and engine-visible documents.
type DocumentService interface {
	// Create persists a new document. When content exceeds the chunk
	// threshold the document is split and each chunk embedded; otherwise
	// the document itself is embedded. An embedding failure on this path
	// fails the whole operation.
	Create(ctx context.Context, input NewDocument) (*domain.Document, error)

	// Update replaces a document's title and content, regenerating
	// chunks and embeddings. Embedding failures here are non-fatal; the
	// updated text is saved with a nil embedding and a warning logged.
	Update(ctx context.Context, id, title string, content *string) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, id string) error

	// ListByScope returns non-chunk documents in one scope.
	ListByScope(ctx context.Context, workspaceID string, scope domain.Scope, ownerID *string) ([]domain.Document, error)
}

// CommitHistory exposes the replayable audit trail.
type CommitHistory interface {
	// ListCommits returns the newest commits, newest first.
	ListCommits(ctx context.Context, workspaceID string, limit int) ([]domain.Commit, error)

	// CommitDetail returns one commit with its version snapshots and
	// linked signal IDs.
	CommitDetail(ctx context.Context, commitID string) (*CommitDetail, error)
}

// CommitDetail is a commit joined with its effects.
type CommitDetail struct {
	// Commit is the history node.
	Commit domain.Commit

	// Versions are the document snapshots the commit wrote.
	Versions []domain.DocumentVersion

	// SignalIDs are the signals folded into the commit.
	SignalIDs []string
}
