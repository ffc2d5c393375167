package domain

import "time"

// Scope is the visibility/ownership partition of a document.
type Scope string

// Document scopes.
const (
	// ScopePersonal documents are owned by a single user.
	ScopePersonal Scope = "personal"

	// ScopeShared documents have no owner and are visible to the team.
	ScopeShared Scope = "shared"

	// ScopeOrg is reserved for future organisation-wide documents.
	ScopeOrg Scope = "org"

	// ScopeSynthesis documents form the machine-maintained world model.
	// They have no owner and are mutated only by the synthesis engine.
	ScopeSynthesis Scope = "synthesis"
)

// Valid reports whether s is a known scope value.
func (s Scope) Valid() bool {
	switch s {
	case ScopePersonal, ScopeShared, ScopeOrg, ScopeSynthesis:
		return true
	}
	return false
}

// Document is a titled unit of knowledge within a workspace.
//
// A document whose ParentID is non-nil is a chunk: a fragment of an
// oversized parent split for retrieval. Chunks are independent rows that
// share an embedding space with their logical parent, and are never
// themselves chunked. Chunks are wholly regenerated whenever the parent's
// content changes.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// WorkspaceID is the owning workspace.
	WorkspaceID string

	// Scope is the visibility partition.
	Scope Scope

	// OwnerID is the owning user for personal documents, nil otherwise.
	OwnerID *string

	// Title is the human-readable title.
	Title string

	// Content is the full text. Nil for file-backed documents whose
	// body lives in blob storage.
	Content *string

	// FileRef is an optional reference into blob storage.
	FileRef *string

	// ParentID links a chunk to its logical parent document.
	ParentID *string

	// ChunkIndex is the ordinal position of a chunk within its parent.
	// Zero-based; meaningless when ParentID is nil.
	ChunkIndex int

	// Embedding is the vector representation used for retrieval.
	// Nil when the content is represented by its chunks instead, or when
	// embedding failed on a non-critical path.
	Embedding []float32

	// CreatedAt is when the document was created.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// IsChunk reports whether the document is a chunk of a parent document.
func (d *Document) IsChunk() bool {
	return d.ParentID != nil
}

// LogicalID returns the dedup key for retrieval: the parent ID for
// chunks, the document's own ID otherwise.
func (d *Document) LogicalID() string {
	if d.ParentID != nil {
		return *d.ParentID
	}
	return d.ID
}

// Text returns the content string, empty for file-backed documents.
func (d *Document) Text() string {
	if d.Content == nil {
		return ""
	}
	return *d.Content
}
