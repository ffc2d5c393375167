package driven

import (
	"context"

	"github.com/driftline/driftline/internal/core/domain"
)

// SimilarityQuery selects candidate documents for a nearest-neighbour scan.
type SimilarityQuery struct {
	// WorkspaceID scopes the scan to one workspace.
	WorkspaceID string

	// Scope restricts results to one visibility partition.
	Scope domain.Scope

	// OwnerID filters personal documents to one user. Nil matches
	// ownerless documents for the given scope.
	OwnerID *string

	// Embedding is the query vector.
	Embedding []float32

	// Limit is the maximum number of hits to return.
	Limit int
}

// DocumentHit is a similarity search result.
type DocumentHit struct {
	// Document is the matched row (a chunk or a whole document).
	Document domain.Document

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// DocumentStore persists documents and chunks and provides the
// vector-similarity scan used by retrieval.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document and, via the parent link, its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListByScope returns non-chunk documents in a scope, optionally
	// filtered to one owner. Synthesis and shared scopes pass a nil owner.
	ListByScope(ctx context.Context, workspaceID string, scope domain.Scope, ownerID *string) ([]domain.Document, error)

	// ListChunks returns the chunks of a parent document ordered by index.
	ListChunks(ctx context.Context, parentID string) ([]domain.Document, error)

	// DeleteChunks removes all chunks of a parent document. Called before
	// regenerating chunks when the parent's content changes.
	DeleteChunks(ctx context.Context, parentID string) error

	// SearchSimilar returns the nearest rows to the query embedding within
	// the filter, ordered by descending similarity. Rows without an
	// embedding never match.
	SearchSimilar(ctx context.Context, query SimilarityQuery) ([]DocumentHit, error)
}
